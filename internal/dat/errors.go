package dat

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument is returned when a thread log has no lines at all.
var ErrEmptyDocument = errors.New("dat: empty document")

// MalformedLineError reports a line that does not follow the origin format.
// A single malformed line invalidates the whole document.
type MalformedLineError struct {
	Line   int // 1-based
	Fields int
	Reason string
}

func (e *MalformedLineError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("dat: malformed line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("dat: malformed line %d: got %d fields", e.Line, e.Fields)
}
