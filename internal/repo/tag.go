package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

type TagRepo struct {
	db DBTX
}

func NewTagRepo(db DBTX) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) FindByName(ctx context.Context, name string) ([]model.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name FROM tags WHERE lower(name) = lower($1) ORDER BY id
	`, name)
	if err != nil {
		return nil, fmt.Errorf("find tag %q: %w", name, err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.Tag])
}

// Create relies on the unique index over lower(name). ON CONFLICT waits for a
// concurrent insert of the same name to settle, so a lost race shows up as an
// empty result rather than an error.
func (r *TagRepo) Create(ctx context.Context, name string) (model.Tag, bool, error) {
	tag := model.Tag{Name: name}
	err := r.db.QueryRow(ctx, `
		INSERT INTO tags (name) VALUES ($1)
		ON CONFLICT DO NOTHING
		RETURNING id
	`, name).Scan(&tag.ID)

	switch err = mapError(err); {
	case err == nil:
		return tag, true, nil
	case errors.Is(err, ErrorNotFound), errors.Is(err, ErrorConflict):
		return model.Tag{}, false, nil
	default:
		return model.Tag{}, false, fmt.Errorf("create tag %q: %w", name, err)
	}
}

func (r *TagRepo) Link(ctx context.Context, taskID, listID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO tag2task (task_id, tag_id, list_id)
		SELECT $1::bigint, unnest($2::bigint[]), $3::bigint
		ON CONFLICT DO NOTHING
	`, taskID, tagIDs, listID)
	return mapError(err)
}

func (r *TagRepo) Unlink(ctx context.Context, taskID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM tag2task WHERE task_id = $1", taskID)
	return mapError(err)
}

func (r *TagRepo) Relink(ctx context.Context, taskID, listID int64) error {
	_, err := r.db.Exec(ctx, "UPDATE tag2task SET list_id = $2 WHERE task_id = $1", taskID, listID)
	return mapError(err)
}
