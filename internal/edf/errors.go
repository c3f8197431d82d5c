package edf

import "fmt"

// FormatError reports input that does not conform to the EDF/EDF+ field
// layout. It is terminal for the affected file but never for the batch.
type FormatError struct {
	Path string
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("edf format violation: %s", e.Msg)
	}
	return fmt.Sprintf("edf format violation: %s: %s", e.Path, e.Msg)
}

func formatErrf(path, format string, args ...interface{}) error {
	return &FormatError{Path: path, Msg: fmt.Sprintf(format, args...)}
}
