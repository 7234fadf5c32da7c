package results

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollify/backend/internal/models"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func rowsFor(picks ...models.Option) []models.VoteRow {
	rows := make([]models.VoteRow, 0, len(picks))
	for i, o := range picks {
		email := o.Text + "-voter@example.com"
		rows = append(rows, models.VoteRow{
			OptionID:   o.ID,
			OptionText: o.Text,
			Email:      &email,
			CreatedAt:  t0.Add(time.Duration(i) * time.Second),
		})
	}
	return rows
}

func opt(text string) models.Option {
	return models.Option{ID: uuid.New(), Text: text}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		count, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{2, 3, 67},
		{1, 3, 33},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds half away from zero
		{3, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.count, tt.total), "%d/%d", tt.count, tt.total)
	}
}

func TestAggregateTeaCoffee(t *testing.T) {
	tea, coffee := opt("Tea"), opt("Coffee")
	res := Aggregate(rowsFor(tea, coffee, tea))

	require.Len(t, res, 2)
	assert.Equal(t, models.OptionResult{OptionID: tea.ID, OptionText: "Tea", VoteCount: 2, Percentage: 67}, res[0])
	assert.Equal(t, models.OptionResult{OptionID: coffee.ID, OptionText: "Coffee", VoteCount: 1, Percentage: 33}, res[1])
	assert.Equal(t, 3, Total(res))
}

func TestAggregateNoVotes(t *testing.T) {
	res := Aggregate(nil)
	assert.NotNil(t, res)
	assert.Empty(t, res)
	assert.Zero(t, Total(res))
}

func TestAggregateOrderFollowsFirstVote(t *testing.T) {
	a, b, c := opt("A"), opt("B"), opt("C")
	res := Aggregate(rowsFor(c, a, c, b, a, c))

	texts := []string{res[0].OptionText, res[1].OptionText, res[2].OptionText}
	assert.Equal(t, []string{"C", "A", "B"}, texts)
}

func TestAggregateInvariants(t *testing.T) {
	options := []models.Option{opt("A"), opt("B"), opt("C"), opt("D"), opt("E"), opt("F"), opt("G")}
	// Deterministic spread of picks across options, including some never picked.
	for n := 1; n <= 60; n++ {
		var picks []models.Option
		for i := 0; i < n; i++ {
			picks = append(picks, options[(i*i+n)%5])
		}
		rows := rowsFor(picks...)
		res := Aggregate(rows)

		assert.Equal(t, len(rows), Total(res))
		sum := 0
		for _, r := range res {
			assert.Positive(t, r.VoteCount)
			assert.GreaterOrEqual(t, r.Percentage, 0)
			assert.LessOrEqual(t, r.Percentage, 100)
			sum += r.Percentage
		}
		slack := len(res) - 1
		assert.GreaterOrEqual(t, sum, 100-slack, "n=%d", n)
		assert.LessOrEqual(t, sum, 100+slack, "n=%d", n)

		assert.Equal(t, res, Aggregate(rows), "aggregation must be repeatable")
	}
}

func TestIncludeZeros(t *testing.T) {
	a, b, c := opt("A"), opt("B"), opt("C")
	res := IncludeZeros([]models.Option{a, b, c}, Aggregate(rowsFor(c, c, a)))

	require.Len(t, res, 3)
	assert.Equal(t, []int{1, 0, 2}, []int{res[0].VoteCount, res[1].VoteCount, res[2].VoteCount})
	assert.Equal(t, []int{33, 0, 67}, []int{res[0].Percentage, res[1].Percentage, res[2].Percentage})
	assert.Equal(t, "B", res[1].OptionText)

	none := IncludeZeros([]models.Option{a, b}, Aggregate(nil))
	require.Len(t, none, 2)
	for _, r := range none {
		assert.Zero(t, r.Percentage)
	}
}

func TestGroupVotersNewestFirst(t *testing.T) {
	a, b := opt("A"), opt("B")
	rows := rowsFor(a, b, a)
	name := "Ada"
	rows[2].Name = &name

	detail := GroupVoters(rows)
	require.Len(t, detail, 2)

	assert.Equal(t, a.ID, detail[0].OptionID)
	require.Len(t, detail[0].Voters, 2)
	assert.Equal(t, rows[2].CreatedAt, detail[0].Voters[0].CreatedAt)
	assert.Equal(t, &name, detail[0].Voters[0].Name)
	assert.Equal(t, rows[0].CreatedAt, detail[0].Voters[1].CreatedAt)
	assert.Nil(t, detail[0].Voters[1].Name)

	assert.Equal(t, b.ID, detail[1].OptionID)
	assert.Len(t, detail[1].Voters, 1)

	assert.Empty(t, GroupVoters(nil))
}

func TestTopPoll(t *testing.T) {
	summary := func(q string, total int) models.PollSummary {
		return models.PollSummary{Poll: models.Poll{ID: uuid.New(), Question: q}, TotalVotes: total}
	}

	t.Run("no polls", func(t *testing.T) {
		assert.Nil(t, TopPoll(nil))
	})

	t.Run("no votes anywhere", func(t *testing.T) {
		assert.Nil(t, TopPoll([]models.PollSummary{summary("a", 0), summary("b", 0)}))
	})

	t.Run("largest wins", func(t *testing.T) {
		list := []models.PollSummary{summary("a", 2), summary("b", 9), summary("c", 4)}
		top := TopPoll(list)
		require.NotNil(t, top)
		assert.Equal(t, models.TopPoll{PollID: list[1].ID, Question: "b", Votes: 9}, *top)
	})

	t.Run("tie keeps first in listing order", func(t *testing.T) {
		list := []models.PollSummary{summary("a", 1), summary("b", 5), summary("c", 5)}
		top := TopPoll(list)
		require.NotNil(t, top)
		assert.Equal(t, list[1].ID, top.PollID)
	})
}
