package screening

import (
	"fmt"
	"strings"
)

// SchemaError reports that an input batch is missing required columns. It is
// batch-fatal and lists every missing column, not just the first, so a caller
// can fix the input in one pass.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("input batch is missing required columns: %s",
		strings.Join(e.Missing, ", "))
}

// BatchError reports row-level invariant violations (duplicate transaction
// IDs, negative or unparsable amounts). Like SchemaError it is batch-fatal
// and enumerates every violation found.
type BatchError struct {
	Problems []string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("input batch rejected: %s", strings.Join(e.Problems, "; "))
}
