// Package refs implements the reference token grammar used inside block
// parameter values.
//
// Two token families exist and are matched independently:
//
//   - <head.path> bracket references, where head names a block, a variable,
//     or the loop/parallel/start context, and path drills into the value;
//   - {{NAME}} environment tokens.
//
// The scanner is deliberately strict: an angle-bracket span whose interior
// does not parse as a head plus identifier path is not a reference at all
// and is preserved byte-for-byte, so free text like "x < 5 && 8 > b"
// survives resolution untouched.
package refs
