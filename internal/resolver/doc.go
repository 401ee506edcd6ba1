// Package resolver turns a block's declared parameter tree into concrete
// input values: it scans for reference tokens, authorizes block-output
// references through the accessibility gate, fetches and coerces values,
// renders them for the consuming parameter's language context, and finally
// filters out parameters whose visibility condition does not hold.
//
// Resolution is synchronous and side-effect free over a caller-owned
// execution snapshot. A failure on any parameter aborts the whole call; no
// partial input map is ever returned.
package resolver
