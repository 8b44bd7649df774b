package store

import (
	"context"
	"database/sql"

	"github.com/Shreya9code/ewastetrack/internal/model"
)

// Repository binds the store functions to a database handle so they can be
// passed where an interface is expected.
type Repository struct {
	DB *sql.DB
}

func (r *Repository) GetItem(ctx context.Context, id string) (*model.EwasteItem, error) {
	return GetItem(ctx, r.DB, id)
}

func (r *Repository) GetItemBySerial(ctx context.Context, serial string) (*model.EwasteItem, error) {
	return GetItemBySerial(ctx, r.DB, serial)
}

func (r *Repository) AdvanceItem(ctx context.Context, id string, from, to model.Status, stage model.Stage, a model.Audit) (bool, error) {
	return AdvanceItem(ctx, r.DB, id, from, to, stage, a)
}

func (r *Repository) RecordAcceptance(ctx context.Context, id string, a model.Audit) (bool, error) {
	return RecordAcceptance(ctx, r.DB, id, a)
}

func (r *Repository) ForceItemStatus(ctx context.Context, id string, target model.Status, stage model.Stage, a model.Audit) (bool, error) {
	return ForceItemStatus(ctx, r.DB, id, target, stage, a)
}

func (r *Repository) ResolveCredential(ctx context.Context, role, credential string) (*model.Identity, error) {
	return ResolveCredential(ctx, r.DB, role, credential)
}
