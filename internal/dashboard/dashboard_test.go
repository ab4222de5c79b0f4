package dashboard

import (
	"fmt"
	"testing"

	"github.com/bblibapp/bblib-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []domain.Item {
	return []domain.Item{
		{ID: "1", Title: "Song A", Class: "Pop"},
		{ID: "2", Title: "Song B", Class: "Jazz"},
		{ID: "3", Title: "Song C", Class: "Pop"},
		{ID: "4", Title: "", Class: ""},
	}
}

func TestBuild_Totals(t *testing.T) {
	responses := []domain.Response{
		{Email: "alice@example.com", ItemID: "1", Choice: "WANT"},
		{Email: "alice@example.com", ItemID: "2", Choice: "want"},
		{Email: "bob@example.com", ItemID: "1", Choice: "WANT"},
		{Email: "bob@example.com", ItemID: "3", Choice: "comment", Comment: "nice"},
		{Email: "", ItemID: "1", Choice: "WANT"},
	}

	s := Build(testItems(), responses, "WANT")

	assert.Equal(t, 2, s.Voters, "blank emails do not count as voters")
	assert.Equal(t, 5, s.TotalResponses)
	assert.Equal(t, 4, s.TotalAffirmative, "tag comparison is case-insensitive")
}

func TestBuild_TopItemsRankedAndJoined(t *testing.T) {
	responses := []domain.Response{
		{Email: "a@x.com", ItemID: "1", Choice: "WANT"},
		{Email: "b@x.com", ItemID: "1", Choice: "WANT"},
		{Email: "a@x.com", ItemID: "2", Choice: "WANT"},
		{Email: "a@x.com", ItemID: "gone", Choice: "WANT"},
		{Email: "a@x.com", ItemID: "3", Choice: "comment", Comment: "not a vote"},
	}

	s := Build(testItems(), responses, "WANT")

	require.Len(t, s.TopItems, 3)
	assert.Equal(t, TopItem{ItemID: "1", Title: "Song A", Class: "Pop", Count: 2}, s.TopItems[0])

	// Equal counts break ties by title; "(unknown)" sorts before "Song B".
	assert.Equal(t, "(unknown)", s.TopItems[1].Title)
	assert.Equal(t, "gone", s.TopItems[1].ItemID)
	assert.Equal(t, "Song B", s.TopItems[2].Title)
}

func TestBuild_TopItemsCappedAtTen(t *testing.T) {
	var items []domain.Item
	var responses []domain.Response
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("%d", i)
		items = append(items, domain.Item{ID: id, Title: "Song " + id})
		responses = append(responses, domain.Response{Email: "a@x.com", ItemID: id, Choice: "WANT"})
	}

	s := Build(items, responses, "WANT")

	assert.Len(t, s.TopItems, 10)
}

func TestBuild_ByClass(t *testing.T) {
	responses := []domain.Response{
		{Email: "a@x.com", ItemID: "1", Choice: "WANT"},
		{Email: "b@x.com", ItemID: "3", Choice: "WANT"},
		{Email: "a@x.com", ItemID: "2", Choice: "WANT"},
		{Email: "a@x.com", ItemID: "4", Choice: "WANT"},
		{Email: "a@x.com", ItemID: "gone", Choice: "WANT"},
	}

	s := Build(testItems(), responses, "WANT")

	require.Len(t, s.ByClass, 3)
	// Votes for classless and unresolvable items pool under "(blank)"; ties
	// break by label.
	assert.Equal(t, ClassCount{Class: "(blank)", Count: 2}, s.ByClass[0])
	assert.Equal(t, ClassCount{Class: "Pop", Count: 2}, s.ByClass[1])
	assert.Equal(t, ClassCount{Class: "Jazz", Count: 1}, s.ByClass[2])
}

func TestBuild_RecentSortsNewestFirst(t *testing.T) {
	responses := []domain.Response{
		{Email: "a@x.com", ItemID: "1", Choice: "WANT", Timestamp: "2026-01-02 10:00:00"},
		{Email: "b@x.com", ItemID: "2", Choice: "WANT", Timestamp: "2026-01-05 10:00:00"},
		{Email: "c@x.com", ItemID: "3", Choice: "WANT", Timestamp: "2026-01-03 10:00:00"},
	}

	s := Build(testItems(), responses, "WANT")

	require.Len(t, s.Recent, 3)
	assert.Equal(t, "b@x.com", s.Recent[0].Email)
	assert.Equal(t, "c@x.com", s.Recent[1].Email)
	assert.Equal(t, "a@x.com", s.Recent[2].Email)
}

func TestBuild_RecentUnparseableTimestampsSortLastInOriginalOrder(t *testing.T) {
	responses := []domain.Response{
		{Email: "first-bad@x.com", ItemID: "1", Choice: "WANT", Timestamp: "whenever"},
		{Email: "good@x.com", ItemID: "2", Choice: "WANT", Timestamp: "2026-01-05"},
		{Email: "second-bad@x.com", ItemID: "3", Choice: "WANT", Timestamp: ""},
	}

	s := Build(testItems(), responses, "WANT")

	require.Len(t, s.Recent, 3)
	assert.Equal(t, "good@x.com", s.Recent[0].Email)
	assert.Equal(t, "first-bad@x.com", s.Recent[1].Email)
	assert.Equal(t, "second-bad@x.com", s.Recent[2].Email)
}

func TestBuild_RecentCappedAtTwenty(t *testing.T) {
	var responses []domain.Response
	for i := 0; i < 30; i++ {
		responses = append(responses, domain.Response{
			Email:     "a@x.com",
			ItemID:    "1",
			Choice:    "WANT",
			Timestamp: fmt.Sprintf("2026-01-%02d", i%28+1),
		})
	}

	s := Build(testItems(), responses, "WANT")

	assert.Len(t, s.Recent, 20)
}

func TestBuild_EmptyLog(t *testing.T) {
	s := Build(testItems(), nil, "WANT")

	assert.Zero(t, s.Voters)
	assert.Zero(t, s.TotalResponses)
	assert.Zero(t, s.TotalAffirmative)
	assert.Empty(t, s.TopItems)
	assert.Empty(t, s.ByClass)
	assert.Empty(t, s.Recent)
}

func TestParseTimestamp_Layouts(t *testing.T) {
	for _, ok := range []string{
		"2026-01-02T15:04:05Z",
		"2026-01-02 15:04:05",
		"2026-01-02",
		"1/2/2026 15:04:05",
		"1/2/2026",
		"  2026-01-02  ",
	} {
		_, err := parseTimestamp(ok)
		assert.NoError(t, err, ok)
	}

	_, err := parseTimestamp("not a date")
	assert.Error(t, err)
}
