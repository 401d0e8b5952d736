package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/songmatch/internal/models"
)

var _ list.Item = resultItem{}

// resultItem wraps a session [models.MatchResult] to implement [list.Item].
type resultItem struct {
	input  string
	result models.MatchResult
}

func (i resultItem) FilterValue() string { return i.input }

func (i resultItem) Title() string {
	if i.result.Source != nil {
		return fmt.Sprintf("%s - %s", i.result.Source.Artist, i.result.Source.Title)
	}
	return i.input
}

func (i resultItem) Description() string {
	r := i.result
	if !r.Success {
		return fmt.Sprintf("✗ %s", r.Kind())
	}
	desc := fmt.Sprintf("✓ %s → %s", r.Method, r.TargetPlatform.Label())
	if r.Method == models.MethodMetadata {
		desc = fmt.Sprintf("%s (%.2f)", desc, r.Score)
	}
	return desc
}
