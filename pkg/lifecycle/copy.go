package lifecycle

import "context"

// TableCount is the number of rows copied for a table.
type TableCount struct {
	Table string
	Rows  int64
}

// Copier copies all tables from one database to another. Rows with
// existing primary keys are updated.
type Copier interface {
	Copy(ctx context.Context) ([]TableCount, error)
}
