package grid

import "fmt"

// ParseError reports a malformed raster. It is fatal to the one layer
// being parsed.
type ParseError struct {
	Field  string
	Reason string
	Line   int
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Field != "":
		return fmt.Sprintf("grid: line %d: %s: %s", e.Line, e.Field, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("grid: line %d: %s", e.Line, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("grid: %s: %s", e.Field, e.Reason)
	default:
		return "grid: " + e.Reason
	}
}
