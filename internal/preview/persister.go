package preview

import (
	"context"

	"git.home.luguber.info/inful/specpreview/internal/storage"
)

// StatusPersister writes the active status to the "progress" slot.
type StatusPersister struct {
	Store storage.Store
}

func (p StatusPersister) Persist(ctx context.Context, s StatusCode) error {
	return p.Store.Save(ctx, storage.KeyProgress, string(s))
}
