package access

import (
	"fmt"
	"strings"
)

// DisabledBlockReferenceError is raised when a reference targets a block
// that is disabled in the workflow.
type DisabledBlockReferenceError struct {
	BlockName string
}

func (e *DisabledBlockReferenceError) Error() string {
	return fmt.Sprintf("block %q is disabled, enable it to reference its output", e.BlockName)
}

// UnconnectedBlockReferenceError is raised when a reference targets a block
// outside the referencing block's accessibility set. The message enumerates
// the blocks that are accessible, to aid correction.
type UnconnectedBlockReferenceError struct {
	BlockName  string
	Accessible []string
}

func (e *UnconnectedBlockReferenceError) Error() string {
	if len(e.Accessible) == 0 {
		return fmt.Sprintf("block %q is not connected to this block; no blocks are accessible from here", e.BlockName)
	}
	return fmt.Sprintf("block %q is not connected to this block; accessible blocks: %s",
		e.BlockName, strings.Join(e.Accessible, ", "))
}
