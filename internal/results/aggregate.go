package results

import (
	"math"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pollify/backend/internal/models"
)

// Percentage is round(100*count/total), or 0 when there are no votes.
func Percentage(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}

// Total sums the vote counts of all options.
func Total(results []models.OptionResult) int {
	return lo.SumBy(results, func(r models.OptionResult) int { return r.VoteCount })
}

// Aggregate counts votes per option. rows must be oldest first; options appear in the order
// their first vote was cast. Options with no votes are absent.
func Aggregate(rows []models.VoteRow) []models.OptionResult {
	index := make(map[uuid.UUID]int)
	out := []models.OptionResult{}
	for _, r := range rows {
		i, ok := index[r.OptionID]
		if !ok {
			i = len(out)
			index[r.OptionID] = i
			out = append(out, models.OptionResult{OptionID: r.OptionID, OptionText: r.OptionText})
		}
		out[i].VoteCount++
	}
	return withPercentages(out)
}

// IncludeZeros returns a result for every option of the poll, in option order, using counts from
// results and zero for options nobody picked.
func IncludeZeros(options []models.Option, results []models.OptionResult) []models.OptionResult {
	counts := lo.SliceToMap(results, func(r models.OptionResult) (uuid.UUID, int) { return r.OptionID, r.VoteCount })
	out := lo.Map(options, func(o models.Option, _ int) models.OptionResult {
		return models.OptionResult{OptionID: o.ID, OptionText: o.Text, VoteCount: counts[o.ID]}
	})
	return withPercentages(out)
}

// GroupVoters collects voter identities per option. rows must be oldest first; voters and options are
// returned most recent first.
func GroupVoters(rows []models.VoteRow) []models.OptionVoters {
	index := make(map[uuid.UUID]int)
	out := []models.OptionVoters{}
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		j, ok := index[r.OptionID]
		if !ok {
			j = len(out)
			index[r.OptionID] = j
			out = append(out, models.OptionVoters{OptionID: r.OptionID, OptionText: r.OptionText, Voters: []models.Voter{}})
		}
		out[j].Voters = append(out[j].Voters, models.Voter{Name: r.Name, Email: r.Email, CreatedAt: r.CreatedAt})
	}
	return out
}

// TopPoll folds over polls in listing order and keeps the first poll with a strictly larger total.
// It returns nil when no poll has any vote.
func TopPoll(polls []models.PollSummary) *models.TopPoll {
	var top *models.TopPoll
	for _, p := range polls {
		best := 0
		if top != nil {
			best = top.Votes
		}
		if p.TotalVotes > best {
			top = &models.TopPoll{PollID: p.ID, Question: p.Question, Votes: p.TotalVotes}
		}
	}
	return top
}

func withPercentages(results []models.OptionResult) []models.OptionResult {
	total := Total(results)
	for i := range results {
		results[i].Percentage = Percentage(results[i].VoteCount, total)
	}
	return results
}
