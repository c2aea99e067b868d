// Package smartsyntax decomposes a quick-add title such as
//
//	+1 Call the bank #money #phone @3d
//
// into its priority, tags, due date and the remaining title.
package smartsyntax

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BuzzLyutic/tasklist/internal/duedate"
	"github.com/BuzzLyutic/tasklist/internal/model"
)

var (
	priorityRe = regexp.MustCompile(`^([-+]\d+)(.+)`)
	dueRe      = regexp.MustCompile(`(.+)@(\S+)$`)
	tagRe      = regexp.MustCompile(`(?:^|\s+)#([^#\s]+)`)
)

// Result is the structured form of a parsed title.
type Result struct {
	Title    string
	Priority model.Priority
	// Tags keeps the order of appearance and may hold duplicates.
	Tags    []string
	DueDate *duedate.Date
}

// Hook observes a parsed result and may override its fields. It runs after
// the built-in steps.
type Hook func(raw string, res *Result)

type Parser struct {
	Dates duedate.Resolver
	Hooks []Hook
}

func New(dates duedate.Resolver, hooks ...Hook) *Parser {
	return &Parser{Dates: dates, Hooks: hooks}
}

// Parse never fails: text that matches no shorthand stays in the title.
func (p *Parser) Parse(raw string, now time.Time) Result {
	res := Result{Title: raw}

	if m := priorityRe.FindStringSubmatch(res.Title); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			if strings.HasPrefix(m[1], "-") {
				n = int(model.PriorityLow)
			} else {
				n = int(model.PriorityHighest)
			}
		}
		res.Priority = model.ClampPriority(n)
		res.Title = strings.TrimSpace(m[2])
	}

	if m := dueRe.FindStringSubmatch(res.Title); m != nil {
		if d, ok := p.resolveDue(m[2], now); ok {
			res.DueDate = &d
			res.Title = m[1]
		}
	}

	res.Title = tagRe.ReplaceAllStringFunc(res.Title, func(s string) string {
		sub := tagRe.FindStringSubmatch(s)
		res.Tags = append(res.Tags, sub[1])
		return ""
	})
	res.Title = strings.TrimSpace(res.Title)

	for _, h := range p.Hooks {
		h(raw, &res)
	}
	return res
}

func (p *Parser) resolveDue(token string, now time.Time) (duedate.Date, bool) {
	if d, ok := p.Dates.Relative(token, now); ok {
		return d, true
	}
	return p.Dates.Resolve(token, now)
}
