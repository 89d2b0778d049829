package content

import (
	"errors"
	"fmt"
)

var errRangeShape = errors.New("content: int range must be a scalar or a two-element [min,max] sequence")

// LoadError reports every broken reference or malformed template found
// while building a Store. The loader collects as many as it can before
// returning so startup failures give a complete report (spec §4.1).
type LoadError struct {
	Problems []string
}

func (e *LoadError) Error() string {
	msg := "content load failed:"
	for _, p := range e.Problems {
		msg += "\n  - " + p
	}
	return msg
}

func (e *LoadError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *LoadError) errOrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
