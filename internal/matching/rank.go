package matching

import (
	"sort"

	"github.com/desertthunder/songmatch/internal/models"
)

// Scored pairs a candidate with its score and its position in the original list.
type Scored struct {
	Candidate models.Candidate
	Score     float64
	Index     int
}

// Rank scores every candidate against source and returns the best one.
//
// Ties keep the earliest candidate, so the target catalog's own ordering decides.
// ok is false only for an empty list. No threshold is applied here.
func (s *Scorer) Rank(source models.TrackMetadata, candidates []models.Candidate) (best Scored, ok bool) {
	for i, c := range candidates {
		score := s.Score(source.Title, source.Artist, c.Title, c.Artist)
		if !ok || score > best.Score {
			best, ok = Scored{Candidate: c, Score: score, Index: i}, true
		}
	}
	return best, ok
}

// RankAll returns every candidate scored, best first, ties in original order.
func (s *Scorer) RankAll(source models.TrackMetadata, candidates []models.Candidate) []Scored {
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{Candidate: c, Score: s.Score(source.Title, source.Artist, c.Title, c.Artist), Index: i}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
