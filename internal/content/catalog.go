package content

import "context"

type ListOpts struct {
	Kind   Kind   // optional filter
	Status Status // optional filter
	Limit  int
	Offset int
}

// Store is the content catalog. GetItem returns the full item including
// answer keys; handlers decide what view to serve.
type Store interface {
	PutItem(ctx context.Context, it Item) error
	GetItem(ctx context.Context, id string) (Item, error)
	SetStatus(ctx context.Context, id string, to Status) (Item, error)
	ListItems(ctx context.Context, opts ListOpts) ([]Item, error)
}
