package audit

import "context"

// Store is the append-only audit log. Append never fails from the
// caller's point of view: a logging failure must not abort the business
// operation it documents.
type Store interface {
	Append(ctx context.Context, e Entry) string
	Query(ctx context.Context, f Filters) ([]Entry, error)
}
