package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

const listColumns = `id, uuid, login, name, d_created, d_edited, sorting, show_compl, published, ow`

type ListRepo struct {
	db DBTX
}

func NewListRepo(db DBTX) *ListRepo {
	return &ListRepo{db: db}
}

func (r *ListRepo) Get(ctx context.Context, id int64) (model.List, error) {
	l, err := scanList(r.db.QueryRow(ctx, "SELECT "+listColumns+" FROM lists WHERE id = $1", id))
	return l, mapError(err)
}

func (r *ListRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM lists WHERE id = $1)", id).Scan(&ok)
	return ok, mapError(err)
}

// Create appends the list after the owner's other lists.
func (r *ListRepo) Create(ctx context.Context, l model.List) (model.List, error) {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO lists (uuid, login, name, ow, sorting, show_compl, published)
		SELECT $1::uuid, $2::text, $3::text, coalesce(max(ow), 0) + 1, $4::integer, $5::boolean, $6::boolean
		FROM lists WHERE login = $2
		RETURNING id, ow, d_created, d_edited
	`, pgUUID(l.UUID), l.Owner, l.Name, l.Sort.Code(), l.ShowCompleted, l.Published,
	).Scan(&l.ID, &l.OW, &l.CreatedAt, &l.EditedAt)
	return l, mapError(err)
}

func (r *ListRepo) ByOwner(ctx context.Context, login string) ([]model.List, error) {
	return r.query(ctx, "SELECT "+listColumns+" FROM lists WHERE login = $1 ORDER BY ow, id", login)
}

func (r *ListRepo) Published(ctx context.Context) ([]model.List, error) {
	return r.query(ctx, "SELECT "+listColumns+" FROM lists WHERE published ORDER BY id")
}

func (r *ListRepo) SetShowCompleted(ctx context.Context, id int64, show bool) error {
	_, err := r.db.Exec(ctx, "UPDATE lists SET show_compl = $2 WHERE id = $1", id, show)
	return mapError(err)
}

func (r *ListRepo) SetSort(ctx context.Context, id int64, sort model.SortMode) error {
	_, err := r.db.Exec(ctx, "UPDATE lists SET sorting = $2 WHERE id = $1", id, sort.Code())
	return mapError(err)
}

func (r *ListRepo) query(ctx context.Context, sql string, args ...any) ([]model.List, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	lists := make([]model.List, 0)
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func scanList(row pgx.Row) (model.List, error) {
	var (
		l    model.List
		id   pgtype.UUID
		sort int
	)
	err := row.Scan(&l.ID, &id, &l.Owner, &l.Name, &l.CreatedAt, &l.EditedAt, &sort, &l.ShowCompleted, &l.Published, &l.OW)
	l.UUID = id.Bytes
	l.Sort = model.SortModeFromCode(sort)
	return l, err
}
