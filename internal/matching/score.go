// Package matching scores how well a target catalog candidate matches a source track.
//
// Titles and artists are compared after [Normalize] using a normalized
// Levenshtein similarity, combined as a weighted average in which the title
// weighs at least as much as the artist.
package matching

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/desertthunder/songmatch/internal/shared"
)

// DefaultThreshold is the minimum combined score a metadata match must reach.
const DefaultThreshold = 0.6

// Weights sets the contribution of each field to the combined score.
type Weights struct {
	Title  float64
	Artist float64
}

// DefaultWeights keeps a perfect title with a completely different artist (0.55) below [DefaultThreshold].
var DefaultWeights = Weights{Title: 0.55, Artist: 0.45}

// Validate rejects weights that are non-positive or let the artist outweigh the title.
func (w Weights) Validate() error {
	if w.Title <= 0 || w.Artist <= 0 {
		return fmt.Errorf("%w: weights must be positive (title=%v artist=%v)", shared.ErrInvalidConfig, w.Title, w.Artist)
	}
	if w.Title < w.Artist {
		return fmt.Errorf("%w: title weight %v is below artist weight %v", shared.ErrInvalidConfig, w.Title, w.Artist)
	}
	return nil
}

// normalized scales the weights to sum to 1.
func (w Weights) normalized() Weights {
	sum := w.Title + w.Artist
	return Weights{Title: w.Title / sum, Artist: w.Artist / sum}
}

// Scorer computes bounded confidence scores. It is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer using w, normalized to sum to 1.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w.normalized()}, nil
}

// DefaultScorer returns a Scorer with [DefaultWeights].
func DefaultScorer() *Scorer {
	return &Scorer{weights: DefaultWeights.normalized()}
}

// Weights returns the normalized weights in use.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Breakdown exposes the intermediate values of a score for diagnostics.
type Breakdown struct {
	SourceTitle      string  `json:"source_title" yaml:"source_title"`
	SourceArtist     string  `json:"source_artist" yaml:"source_artist"`
	CandidateTitle   string  `json:"candidate_title" yaml:"candidate_title"`
	CandidateArtist  string  `json:"candidate_artist" yaml:"candidate_artist"`
	TitleSimilarity  float64 `json:"title_similarity" yaml:"title_similarity"`
	ArtistSimilarity float64 `json:"artist_similarity" yaml:"artist_similarity"`
	Score            float64 `json:"score" yaml:"score"`
}

// Score returns the combined similarity in [0, 1] of a candidate to a source track.
func (s *Scorer) Score(srcTitle, srcArtist, candTitle, candArtist string) float64 {
	return s.Explain(srcTitle, srcArtist, candTitle, candArtist).Score
}

// Explain scores like [Scorer.Score] and returns the normalized inputs alongside.
func (s *Scorer) Explain(srcTitle, srcArtist, candTitle, candArtist string) Breakdown {
	b := Breakdown{
		SourceTitle:     Normalize(srcTitle),
		SourceArtist:    Normalize(srcArtist),
		CandidateTitle:  Normalize(candTitle),
		CandidateArtist: Normalize(candArtist),
	}
	b.TitleSimilarity = Similarity(b.SourceTitle, b.CandidateTitle)
	b.ArtistSimilarity = Similarity(b.SourceArtist, b.CandidateArtist)
	b.Score = clamp(s.weights.Title*b.TitleSimilarity + s.weights.Artist*b.ArtistSimilarity)
	return b
}

// Similarity is 1 - lev(a, b) / max(len(a), len(b), 1), with lengths counted in runes.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b), 1)
	dist := levenshtein.ComputeDistance(a, b)
	return clamp(1 - float64(dist)/float64(longest))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
