package analysis

import (
	"context"
	"strconv"
)

// FixedCompleter answers every prompt with the same score. It backs offline
// deployments and tests.
type FixedCompleter struct {
	Value float64
}

func (f FixedCompleter) Complete(context.Context, string, string) (string, error) {
	return strconv.FormatFloat(f.Value, 'f', -1, 64), nil
}
