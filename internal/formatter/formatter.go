// package formatter renders match results, batch runs and history as text, JSON, YAML, CSV and tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/desertthunder/songmatch/internal/matching"
	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
	"github.com/desertthunder/songmatch/internal/tasks"
)

// Format selects an output encoding.
type Format string

const (
	Text  Format = "text"
	JSON  Format = "json"
	YAML  Format = "yaml"
	CSV   Format = "csv"
	Table Format = "table"
)

// ParseFormat accepts a format name; empty means [Text].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON, YAML, CSV, Table:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, s)
	}
}

// ResultToText renders a single result for humans.
func ResultToText(r models.MatchResult) string {
	var buf bytes.Buffer

	if r.Source != nil {
		buf.WriteString(fmt.Sprintf("Source:  %s (%s)\n", r.Source, r.SourcePlatform.Label()))
	} else {
		buf.WriteString(fmt.Sprintf("Source:  %s %s\n", r.SourcePlatform.Label(), r.SourceID))
	}

	if !r.Success {
		buf.WriteString(fmt.Sprintf("Result:  no match on %s\n", r.TargetPlatform.Label()))
		if r.Error != nil {
			buf.WriteString(fmt.Sprintf("Error:   %s\n", r.Error))
		}
		return buf.String()
	}

	if r.Target != nil {
		buf.WriteString(fmt.Sprintf("Match:   %s (%s)\n", r.Target, r.TargetPlatform.Label()))
	}
	buf.WriteString(fmt.Sprintf("Link:    %s\n", r.TargetURL))
	buf.WriteString(fmt.Sprintf("Method:  %s\n", methodLabel(r)))
	if r.Score > 0 {
		buf.WriteString(fmt.Sprintf("Score:   %.3f\n", r.Score))
	}

	return buf.String()
}

// ResultToJSON renders a result as indented JSON.
func ResultToJSON(r models.MatchResult) ([]byte, error) {
	return marshalJSON(r)
}

// ResultToYAML renders a result as YAML.
func ResultToYAML(r models.MatchResult) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

// WriteResult writes r to w in the given format. CSV and table fall back to text.
func WriteResult(w io.Writer, r models.MatchResult, f Format) error {
	var (
		data []byte
		err  error
	)

	switch f {
	case JSON:
		data, err = ResultToJSON(r)
	case YAML:
		data, err = ResultToYAML(r)
	default:
		data = []byte(ResultToText(r))
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// BatchToCSV converts a batch run to CSV with columns:
// Input, Success, Method, Score, TargetID, TargetURL, Error
func BatchToCSV(result *tasks.BatchResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Input", "Success", "Method", "Score", "TargetID", "TargetURL", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range result.Items {
		r := item.Result
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		record := []string{
			item.Input,
			strconv.FormatBool(r.Success),
			r.Method.String(),
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			r.TargetID,
			r.TargetURL,
			errText,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

type batchJSON struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	CacheHits int             `json:"cache_hits"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Items     []batchItemJSON `json:"items"`
}

type batchItemJSON struct {
	Input  string             `json:"input"`
	Result models.MatchResult `json:"result"`
}

// BatchToJSON renders a batch run as indented JSON.
func BatchToJSON(result *tasks.BatchResult) ([]byte, error) {
	out := batchJSON{
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		CacheHits: result.CacheHits,
		ElapsedMS: result.Elapsed.Milliseconds(),
		Items:     make([]batchItemJSON, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		out.Items = append(out.Items, batchItemJSON{Input: item.Input, Result: item.Result})
	}
	return marshalJSON(out)
}

// BatchSummary is the one-paragraph report printed after a batch run.
func BatchSummary(result *tasks.BatchResult) string {
	return fmt.Sprintf(
		"Matched %d/%d (%.1f%%), %d failed, %d from cache in %s\n",
		result.Succeeded, result.Total, result.MatchPercentage(),
		result.Failed, result.CacheHits, result.Elapsed.Round(time.Millisecond),
	)
}

// HistoryTable renders stored match records newest first.
func HistoryTable(records []*models.MatchRecord) string {
	if len(records) == 0 {
		return "No matches recorded.\n"
	}

	tw := newTable("#", "When", "Source", "Track", "Target", "Outcome")
	for _, rec := range records {
		r := rec.Result()
		outcome := r.Method.String()
		target := r.TargetID
		if !r.Success {
			outcome = string(r.Kind())
		}
		if target == "" {
			target = "-"
		}

		track := "-"
		if rec.SourceTitle() != "" {
			track = rec.SourceTitle() + " / " + rec.SourceArtist()
		}

		tw.AppendRow(table.Row{
			rec.Sequence(),
			rec.CreatedAt().Local().Format("2006-01-02 15:04"),
			r.SourcePlatform.String() + ":" + r.SourceID,
			text.Trim(track, 48),
			r.TargetPlatform.String() + ":" + target,
			outcome,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})

	return tw.Render() + "\n"
}

// BreakdownTable renders a score breakdown with the pass/fail verdict for threshold.
func BreakdownTable(b matching.Breakdown, w matching.Weights, threshold float64) string {
	tw := newTable("Field", "Source", "Candidate", "Similarity", "Weight")
	tw.AppendRow(table.Row{"title", b.SourceTitle, b.CandidateTitle, fmt.Sprintf("%.3f", b.TitleSimilarity), fmt.Sprintf("%.2f", w.Title)})
	tw.AppendRow(table.Row{"artist", b.SourceArtist, b.CandidateArtist, fmt.Sprintf("%.3f", b.ArtistSimilarity), fmt.Sprintf("%.2f", w.Artist)})

	verdict := "match"
	if b.Score < threshold {
		verdict = "below threshold"
	}
	tw.AppendFooter(table.Row{"score", "", "", fmt.Sprintf("%.3f", b.Score), verdict})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	return tw.Render() + "\n"
}

// BreakdownToJSON renders a score breakdown as indented JSON.
func BreakdownToJSON(b matching.Breakdown) ([]byte, error) {
	return marshalJSON(b)
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return tw
}

func methodLabel(r models.MatchResult) string {
	if r.Method == models.MethodCache && r.ResolvedBy != models.MethodNone {
		return fmt.Sprintf("%s (originally %s)", r.Method, r.ResolvedBy)
	}
	return r.Method.String()
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}
