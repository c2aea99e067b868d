package i18n

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/tasklist/internal/duedate"
)

func TestLabels_English(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	en := c.For("")
	ref := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		due  duedate.Date
		want string
	}{
		{duedate.Date{Year: 2024, Month: time.June, Day: 15}, "Today"},
		{duedate.Date{Year: 2024, Month: time.June, Day: 16}, "Tomorrow"},
		{duedate.Date{Year: 2024, Month: time.June, Day: 14}, "Yesterday"},
		{duedate.Date{Year: 2024, Month: time.June, Day: 10}, "5 days ago"},
		{duedate.Date{Year: 2024, Month: time.June, Day: 20}, "In 5 days"},
		{duedate.Date{Year: 2024, Month: time.July, Day: 4}, "Jul 4"},
		{duedate.Date{Year: 2025, Month: time.January, Day: 3}, "Jan 3, 2025"},
		{duedate.Date{}, ""},
	}

	for _, tt := range tests {
		got := en.Label(duedate.Classify(tt.due, ref), tt.due)
		assert.Equal(t, tt.want, got, "due %s", tt.due)
	}
}

func TestCatalog_For(t *testing.T) {
	c := MustLoad()
	due := duedate.Date{Year: 2023, Month: time.March, Day: 8}
	cls := duedate.Classification{Bucket: duedate.BucketPast, Hint: duedate.HintLongDate}

	assert.Equal(t, "Сегодня", c.For("ru-RU,ru;q=0.9,en;q=0.5").Today)
	assert.Equal(t, "8 мар 2023", c.For("ru").Label(cls, due))
	assert.Equal(t, "Today", c.For("de-DE").Today)
	assert.Equal(t, "Today", c.For(";;;garbage").Today)
}
