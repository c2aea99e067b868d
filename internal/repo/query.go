package repo

import (
	"strconv"
	"strings"

	"github.com/BuzzLyutic/tasklist/internal/model"
)

const taskColumns = `
	t.id, t.uuid, t.list_id, t.title, t.note, t.prio, t.compl, t.d_completed,
	t.d_created, t.d_edited, t.duedate, t.ow,
	coalesce(array_agg(g.id ORDER BY g.id) FILTER (WHERE g.id IS NOT NULL), '{}'),
	coalesce(array_agg(g.name ORDER BY g.id) FILTER (WHERE g.id IS NOT NULL), '{}')`

const taskFrom = `
	FROM tasks t
	LEFT JOIN tag2task tt ON tt.task_id = t.id
	LEFT JOIN tags g ON g.id = tt.tag_id`

type sortKey struct {
	expr string
	desc bool
}

var sortChains = map[model.SortKind][]sortKey{
	model.SortManual: {
		{"t.ow", false},
	},
	model.SortPriority: {
		{"t.prio", true}, {"t.duedate IS NULL", false}, {"t.duedate", false}, {"t.ow", false},
	},
	model.SortDueDate: {
		{"t.duedate IS NULL", false}, {"t.duedate", false}, {"t.prio", true}, {"t.ow", false},
	},
	model.SortCreated: {
		{"t.d_created", false}, {"t.prio", true}, {"t.ow", false},
	},
	model.SortModified: {
		{"t.d_edited", false}, {"t.prio", true}, {"t.ow", false},
	},
	model.SortTitle: {
		{"t.title", false}, {"t.prio", true}, {"t.ow", false},
	},
}

// params collects positional arguments and hands out their placeholders.
type params []any

func (p *params) add(v any) string {
	*p = append(*p, v)
	return "$" + strconv.Itoa(len(*p))
}

// buildTaskQuery renders q as one SELECT. Every value travels as a
// parameter; only column names from sortChains are spliced into the text.
func buildTaskQuery(q model.TaskQuery) (string, []any) {
	var args params
	var b strings.Builder

	b.WriteString("SELECT")
	b.WriteString(taskColumns)
	b.WriteString(taskFrom)
	b.WriteString("\n\tWHERE t.list_id = ANY(" + args.add(q.ListIDs) + ")")

	if !q.ShowCompleted {
		b.WriteString("\n\tAND NOT t.compl")
	}
	for _, group := range q.IncludeGroups {
		b.WriteString("\n\tAND EXISTS (SELECT 1 FROM tag2task x WHERE x.task_id = t.id AND x.tag_id = ANY(" + args.add(group) + "))")
	}
	if len(q.ExcludeTagIDs) > 0 {
		b.WriteString("\n\tAND NOT EXISTS (SELECT 1 FROM tag2task x WHERE x.task_id = t.id AND x.tag_id = ANY(" + args.add(q.ExcludeTagIDs) + "))")
	}
	switch {
	case q.TaskID != 0:
		b.WriteString("\n\tAND t.id = " + args.add(q.TaskID))
	case q.Search != "":
		ph := args.add("%" + escapeLike(q.Search) + "%")
		b.WriteString("\n\tAND (t.title ILIKE " + ph + " OR t.note ILIKE " + ph + ")")
	}

	b.WriteString("\n\tGROUP BY t.id\n\tORDER BY ")
	b.WriteString(orderBy(q.Sort))
	return b.String(), args
}

// orderBy always sorts incomplete tasks first and ends with the id so that
// equal keys keep creation order.
func orderBy(m model.SortMode) string {
	chain, ok := sortChains[m.Kind]
	if !ok {
		chain = sortChains[model.SortManual]
	}
	chain = append(chain[:len(chain):len(chain)], sortKey{"t.id", false})

	parts := []string{"t.compl ASC"}
	for _, k := range chain {
		desc := k.desc != m.Reverse
		if desc {
			parts = append(parts, k.expr+" DESC")
		} else {
			parts = append(parts, k.expr+" ASC")
		}
	}
	return strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
