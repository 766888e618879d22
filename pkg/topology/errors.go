package topology

import (
	"errors"
	"fmt"
)

// ErrUnknownNode is matched by every error about a link referencing a
// switch that was never registered
var ErrUnknownNode = errors.New("unknown node")

// UnknownNodeError reports a link endpoint missing from the node set
type UnknownNodeError struct {
	Node NodeID
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %d", e.Node)
}

func (e *UnknownNodeError) Is(target error) bool {
	return target == ErrUnknownNode
}
