package audit

import "context"

// Store persists the audit trail. Append is the only write; entries are
// never updated or deleted.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, q Query) ([]Entry, error)
}
