package refs

// Reference is the closed set of token meanings a bracket span can carry.
// Classification is purely syntactic; whether a block or variable actually
// exists is the resolver's concern.
type Reference interface {
	isReference()
}

// VariableRef is a <variable.name[.path]> token. Name matching against the
// store is whitespace/case insensitive.
type VariableRef struct {
	Name string
	Tail []PathSegment
}

// LoopRef is a <loop.property[.path]> token referencing the enclosing
// loop's iteration state.
type LoopRef struct {
	Property string
	Tail     []PathSegment
}

// ParallelRef is the parallel-branch equivalent of LoopRef.
type ParallelRef struct {
	Property string
	Tail     []PathSegment
}

// BlockRef is a reference to another block's output. Starter marks the
// <start.…> alias, which always targets the workflow's entry block. A
// BlockRef with an empty Path denotes the target's default output field.
type BlockRef struct {
	Head    string
	Starter bool
	Path    []PathSegment
}

func (VariableRef) isReference() {}
func (LoopRef) isReference()     {}
func (ParallelRef) isReference() {}
func (BlockRef) isReference()    {}

// Loop/parallel property names.
const (
	PropCurrentItem = "currentItem"
	PropIndex       = "index"
	PropItems       = "items"
)

// ContextProperty reports whether name is one of the recognized
// loop/parallel properties.
func ContextProperty(name string) bool {
	switch name {
	case PropCurrentItem, PropIndex, PropItems:
		return true
	}
	return false
}

// Classify labels a parsed path with its reference kind.
func Classify(p Path) Reference {
	switch p.Head {
	case "variable":
		if len(p.Segments) == 0 {
			// A bare <variable> names nothing; treat it as a block head so
			// the usual unknown-block tolerance applies.
			return BlockRef{Head: p.Head}
		}
		return VariableRef{Name: p.Segments[0].Name, Tail: indexedTail(p.Segments)}
	case "loop":
		if len(p.Segments) == 0 || !ContextProperty(p.Segments[0].Name) {
			return BlockRef{Head: p.Head, Path: tailOrNil(p.Segments)}
		}
		return LoopRef{Property: p.Segments[0].Name, Tail: indexedTail(p.Segments)}
	case "parallel":
		if len(p.Segments) == 0 || !ContextProperty(p.Segments[0].Name) {
			return BlockRef{Head: p.Head, Path: tailOrNil(p.Segments)}
		}
		return ParallelRef{Property: p.Segments[0].Name, Tail: indexedTail(p.Segments)}
	case "start":
		return BlockRef{Head: p.Head, Starter: true, Path: tailOrNil(p.Segments)}
	}
	return BlockRef{Head: p.Head, Path: tailOrNil(p.Segments)}
}

func tailOrNil(segs []PathSegment) []PathSegment {
	if len(segs) == 0 {
		return nil
	}
	return segs
}

// indexedTail builds the drill path that follows a named first segment,
// e.g. <variable.items[0]> or <loop.items[1]>. An index on that first
// segment applies to the value the segment names, so it is carried over as
// a leading index-only step.
func indexedTail(segs []PathSegment) []PathSegment {
	tail := tailOrNil(segs[1:])
	if segs[0].HasIndex() {
		tail = append([]PathSegment{{Name: "", Index: segs[0].Index}}, tail...)
	}
	return tail
}
