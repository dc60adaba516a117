package gatt

import "fmt"

// FormatError reports device address text that does not parse.
type FormatError struct {
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Text, e.Reason)
}

// StateError reports an operation that needs an active connection when none
// is established.
type StateError struct {
	Op string
}

func (e *StateError) Error() string {
	if e.Op == "" {
		return "no active connection"
	}
	return fmt.Sprintf("%s: no active connection", e.Op)
}

// Is allows errors.Is matching against any StateError value.
func (e *StateError) Is(target error) bool {
	_, ok := target.(*StateError)
	return ok
}

// ErrNotConnected is the StateError returned by accessors that require an
// established connection.
var ErrNotConnected = &StateError{}

// ProtocolError reports a declared length field that disagrees with the data
// actually received.
type ProtocolError struct {
	Field    string
	Declared int
	Actual   int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s length mismatch: declared %d bytes, received %d", e.Field, e.Declared, e.Actual)
}
