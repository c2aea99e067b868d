package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BuzzLyutic/tasklist/internal/duedate"
	"github.com/BuzzLyutic/tasklist/internal/model"
)

type TaskRepo struct { // Работает и с пулом, и с транзакцией
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo { // Конструктор
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	row := r.db.QueryRow(ctx, "SELECT"+taskColumns+taskFrom+`
		WHERE t.id = $1
		GROUP BY t.id
	`, id)
	t, err := scanTask(row)
	return t, mapError(err)
}

func (r *TaskRepo) Find(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if len(q.ListIDs) == 0 {
		return tasks, nil
	}

	sql, args := buildTaskQuery(q)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Insert(ctx context.Context, t model.Task) (model.Task, error) {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO tasks (uuid, list_id, title, note, prio, duedate, ow, d_created, d_edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, d_created, d_edited
	`, pgUUID(t.UUID), t.ListID, t.Title, t.Note, int(t.Priority), pgDate(t.DueDate), t.OW, t.CreatedAt,
	).Scan(&t.ID, &t.CreatedAt, &t.EditedAt)
	return t, mapError(err)
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (int64, error) {
	return r.exec(ctx, `
		UPDATE tasks
		SET title = $2, note = $3, prio = $4, duedate = $5, d_edited = $6
		WHERE id = $1
	`, t.ID, t.Title, t.Note, int(t.Priority), pgDate(t.DueDate), t.EditedAt)
}

func (r *TaskRepo) SetCompleted(ctx context.Context, id int64, completed bool, ow int64, at time.Time) (int64, error) {
	var completedAt *time.Time
	if completed {
		completedAt = &at
	}
	return r.exec(ctx, `
		UPDATE tasks SET compl = $2, ow = $3, d_completed = $4, d_edited = $5 WHERE id = $1
	`, id, completed, ow, completedAt, at)
}

func (r *TaskRepo) SetNote(ctx context.Context, id int64, note string, at time.Time) (int64, error) {
	return r.exec(ctx, "UPDATE tasks SET note = $2, d_edited = $3 WHERE id = $1", id, note, at)
}

func (r *TaskRepo) SetPriority(ctx context.Context, id int64, prio model.Priority, at time.Time) (int64, error) {
	return r.exec(ctx, "UPDATE tasks SET prio = $2, d_edited = $3 WHERE id = $1", id, int(prio), at)
}

func (r *TaskRepo) SetList(ctx context.Context, id, listID, ow int64, at time.Time) (int64, error) {
	return r.exec(ctx, "UPDATE tasks SET list_id = $2, ow = $3, d_edited = $4 WHERE id = $1", id, listID, ow, at)
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) (int64, error) {
	return r.exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
}

func (r *TaskRepo) MaxOrderWeight(ctx context.Context, listID int64, completed bool) (int64, error) {
	var ow int64
	err := r.db.QueryRow(ctx, `
		SELECT coalesce(max(ow), 0) FROM tasks WHERE list_id = $1 AND compl = $2
	`, listID, completed).Scan(&ow)
	return ow, mapError(err)
}

func (r *TaskRepo) ShiftOrderWeight(ctx context.Context, ids []int64, delta int64, at time.Time) (int64, error) {
	return r.exec(ctx, "UPDATE tasks SET ow = ow + $2, d_edited = $3 WHERE id = ANY($1)", ids, delta, at)
}

func (r *TaskRepo) CountCreatedSince(ctx context.Context, since map[int64]time.Time) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(since))
	if len(since) == 0 {
		return counts, nil
	}
	ids := make([]int64, 0, len(since))
	stamps := make([]time.Time, 0, len(since))
	for id, ts := range since {
		ids = append(ids, id)
		stamps = append(stamps, ts)
	}

	rows, err := r.db.Query(ctx, `
		SELECT t.list_id, count(t.id)
		FROM tasks t
		JOIN unnest($1::bigint[], $2::timestamptz[]) AS s(list_id, since) ON s.list_id = t.list_id
		WHERE t.d_created > s.since
		GROUP BY t.list_id
	`, ids, stamps)
	if err != nil {
		return nil, fmt.Errorf("count new tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var listID, n int64
		if err := rows.Scan(&listID, &n); err != nil {
			return nil, err
		}
		counts[listID] = n
	}
	return counts, rows.Err()
}

func (r *TaskRepo) IDsCreatedSince(ctx context.Context, listID int64, since time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM tasks WHERE list_id = $1 AND d_created > $2 ORDER BY id
	`, listID, since)
	if err != nil {
		return nil, fmt.Errorf("list new tasks: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *TaskRepo) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	cmd, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return cmd.RowsAffected(), nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t      model.Task
		id     pgtype.UUID
		prio   int16
		due    pgtype.Date
		tagIDs []int64
		names  []string
	)
	err := row.Scan(
		&t.ID, &id, &t.ListID, &t.Title, &t.Note, &prio, &t.Completed, &t.CompletedAt,
		&t.CreatedAt, &t.EditedAt, &due, &t.OW, &tagIDs, &names,
	)
	if err != nil {
		return t, err
	}

	t.UUID = id.Bytes
	t.Priority = model.Priority(prio)
	if due.Valid {
		d := duedate.FromTime(due.Time)
		t.DueDate = &d
	}
	t.Tags = make([]model.Tag, len(tagIDs))
	for i := range tagIDs {
		t.Tags[i] = model.Tag{ID: tagIDs[i], Name: names[i]}
	}
	return t, nil
}

func pgUUID(u uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: u, Valid: true}
}

func pgDate(d *duedate.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(time.UTC), Valid: true}
}
