// Package i18n renders due-date classifications as text in the user's
// language.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/BuzzLyutic/tasklist/internal/duedate"
)

//go:embed labels/*.yaml
var labelFiles embed.FS

// Labels is one language's set of due-date phrases. ShortDate and LongDate
// are time layouts; the "Jan" in them is replaced by Months.
type Labels struct {
	Today     string   `yaml:"today"`
	Tomorrow  string   `yaml:"tomorrow"`
	Yesterday string   `yaml:"yesterday"`
	DaysAgo   string   `yaml:"days_ago"`
	InDays    string   `yaml:"in_days"`
	ShortDate string   `yaml:"short_date"`
	LongDate  string   `yaml:"long_date"`
	Months    []string `yaml:"months"`
}

// Label returns the text for c. due is only read for the date forms.
func (l Labels) Label(c duedate.Classification, due duedate.Date) string {
	switch c.Hint {
	case duedate.HintToday:
		return l.Today
	case duedate.HintTomorrow:
		return l.Tomorrow
	case duedate.HintYesterday:
		return l.Yesterday
	case duedate.HintDaysAgo:
		return fmt.Sprintf(l.DaysAgo, c.Days)
	case duedate.HintInDays:
		return fmt.Sprintf(l.InDays, c.Days)
	case duedate.HintShortDate:
		return l.format(l.ShortDate, due)
	case duedate.HintLongDate:
		return l.format(l.LongDate, due)
	}
	return ""
}

func (l Labels) format(layout string, d duedate.Date) string {
	out := d.Time(time.UTC).Format(layout)
	if len(l.Months) == 12 && strings.Contains(layout, "Jan") {
		out = strings.Replace(out, d.Month.String()[:3], l.Months[d.Month-1], 1)
	}
	return out
}

// Catalog holds the label sets of every known language.
type Catalog struct {
	tags    []language.Tag
	labels  []Labels
	matcher language.Matcher
}

// Load reads the embedded catalogs. English is always first and is the
// fallback for unknown languages.
func Load() (*Catalog, error) {
	entries, err := labelFiles.ReadDir("labels")
	if err != nil {
		return nil, err
	}

	c := &Catalog{}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".yaml")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("label file %s: %w", e.Name(), err)
		}
		raw, err := labelFiles.ReadFile(path.Join("labels", e.Name()))
		if err != nil {
			return nil, err
		}
		var l Labels
		if err := yaml.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("label file %s: %w", e.Name(), err)
		}

		if tag == language.English {
			c.tags = append([]language.Tag{tag}, c.tags...)
			c.labels = append([]Labels{l}, c.labels...)
		} else {
			c.tags = append(c.tags, tag)
			c.labels = append(c.labels, l)
		}
	}
	if len(c.tags) == 0 || c.tags[0] != language.English {
		return nil, fmt.Errorf("english labels missing")
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// MustLoad is Load for program start-up and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// For picks the labels best matching an Accept-Language header value.
func (c *Catalog) For(acceptLanguage string) Labels {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.labels[0]
	}
	_, i, _ := c.matcher.Match(tags...)
	return c.labels[i]
}
