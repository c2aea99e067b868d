package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/repo"
)

// TagResolver maps tag names to ids, creating tags on first use.
type TagResolver struct{}

// IDsForNames returns the ids of names in first-seen order without duplicate
// ids, together with the names of those tags as stored.
func (TagResolver) IDsForNames(ctx context.Context, tags repo.TagRepository, names []string) ([]int64, []string, error) {
	ids := make([]int64, 0, len(names))
	stored := make([]string, 0, len(names))
	seen := make(map[int64]bool, len(names))

	for _, name := range names {
		name = cleanTagName(name)
		if name == "" {
			continue
		}
		tag, err := findOrCreate(ctx, tags, name)
		if err != nil {
			return nil, nil, err
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		ids = append(ids, tag.ID)
		stored = append(stored, tag.Name)
	}
	return ids, stored, nil
}

// IDsMatching returns every tag id whose name equals name, ignoring case.
func (TagResolver) IDsMatching(ctx context.Context, tags repo.TagRepository, name string) ([]int64, error) {
	found, err := tags.FindByName(ctx, cleanTagName(name))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(found))
	for i, tag := range found {
		ids[i] = tag.ID
	}
	return ids, nil
}

// findOrCreate retries a lost creation race as a lookup.
func findOrCreate(ctx context.Context, tags repo.TagRepository, name string) (model.Tag, error) {
	found, err := tags.FindByName(ctx, name)
	if err != nil {
		return model.Tag{}, err
	}
	if len(found) > 0 {
		return found[0], nil
	}

	tag, created, err := tags.Create(ctx, name)
	if err != nil {
		return model.Tag{}, err
	}
	if created {
		return tag, nil
	}

	found, err = tags.FindByName(ctx, name)
	if err != nil {
		return model.Tag{}, err
	}
	if len(found) == 0 {
		return model.Tag{}, fmt.Errorf("tag %q vanished after conflict", name)
	}
	return found[0], nil
}

func cleanTagName(name string) string {
	return strings.TrimSpace(strings.NewReplacer("^", "", "#", "").Replace(name))
}

// SplitTags splits a comma-separated tag list.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// TagFilter is a tag filter by name. Each include group must be matched by at
// least one of its names.
type TagFilter struct {
	Include [][]string
	Exclude []string
}

func (f TagFilter) IsEmpty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

// ParseTagFilter reads "work,home|garden,^later": comma separates groups, a
// pipe separates alternatives inside a group and a caret marks an exclusion.
func ParseTagFilter(expr string) TagFilter {
	var f TagFilter
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "^" {
			continue
		}
		if strings.HasPrefix(part, "^") {
			f.Exclude = append(f.Exclude, strings.TrimSpace(part[1:]))
			continue
		}
		var group []string
		for _, alt := range strings.Split(part, "|") {
			if alt = strings.TrimSpace(alt); alt != "" {
				group = append(group, alt)
			}
		}
		if len(group) > 0 {
			f.Include = append(f.Include, group)
		}
	}
	return f
}

// Names returns the included names in order, for tagging new tasks.
func (f TagFilter) Names() []string {
	var names []string
	for _, g := range f.Include {
		names = append(names, g...)
	}
	return names
}
