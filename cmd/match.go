package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songmatch/internal/formatter"
	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
	"github.com/desertthunder/songmatch/internal/tasks"
)

// errMatchFailed marks a run where at least one resolution failed.
// main maps it to a distinct exit code; the failure itself was already printed.
var errMatchFailed = errors.New("match failed")

// Match resolves the link given as argument.
//
// With no argument it reads links from stdin one line at a time, printing each
// result as it goes, until EOF or a "quit" line.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	platform, err := models.ParsePlatform(cmd.String("platform"))
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	opts := matchOpts{platform: platform, format: format, validate: cmd.Bool("validate"), open: cmd.Bool("open")}

	if input := cmd.StringArg("input"); input != "" {
		ok, err := r.matchOne(ctx, input, opts)
		if err != nil {
			return err
		}
		if !ok {
			return errMatchFailed
		}
		return nil
	}

	total, failed := 0, 0
	scanner := bufio.NewScanner(r.input)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		total++
		ok, err := r.matchOne(ctx, line, opts)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read inputs: %w", err)
	}

	if total == 0 {
		return fmt.Errorf("%w: track URL or ID", shared.ErrMissingArgument)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errMatchFailed, failed, total)
	}
	return nil
}

type matchOpts struct {
	platform models.Platform
	format   formatter.Format
	validate bool
	open     bool
}

// matchOne prints the result for input and reports whether it matched.
func (r *Runner) matchOne(ctx context.Context, input string, opts matchOpts) (bool, error) {
	res := r.engine.MatchTrack(ctx, input, opts.platform)
	if err := formatter.WriteResult(r.output, res, opts.format); err != nil {
		return false, err
	}
	if !res.Success {
		r.logger.Debug("resolution failed", "input", input, "kind", res.Kind())
		return false, nil
	}

	if opts.validate {
		if err := r.engine.Validate(ctx, res); err != nil {
			r.logger.Warn("matched track failed validation", "target", res.TargetID, "error", err)
			return false, nil
		}
		r.logger.Info("matched track validated", "target", res.TargetID)
	}

	if opts.open {
		if err := r.open(res.TargetURL); err != nil {
			r.logger.Warn("failed to open link", "url", res.TargetURL, "error", err)
		}
	}
	return true, nil
}

// Batch resolves every line of --file through the worker pool and prints one row per input.
//
// Individual failures are reported in the output; the command only fails when nothing matched.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if format == formatter.YAML || format == formatter.Table {
		return fmt.Errorf("%w: batch output supports csv, json and text", shared.ErrInvalidFlag)
	}

	platform, err := models.ParsePlatform(cmd.String("platform"))
	if err != nil {
		return err
	}

	inputs, err := r.readInputFile(cmd.String("file"))
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no inputs in %s", shared.ErrInvalidInput, cmd.String("file"))
	}

	opts := tasks.BatchOpts{
		Platform:   platform,
		NumWorkers: r.config.Batch.Workers,
		RateLimit:  r.config.Batch.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := r.engine.Batch(ctx, progress, inputs, opts)
	close(progress)
	wg.Wait()

	if result != nil {
		if werr := r.writeBatch(result, format); werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}

	if result.Total > 0 && result.Succeeded == 0 {
		return fmt.Errorf("%w: none of %d inputs matched", errMatchFailed, result.Total)
	}
	return nil
}

func (r *Runner) writeBatch(result *tasks.BatchResult, format formatter.Format) error {
	switch format {
	case formatter.CSV:
		data, err := formatter.BatchToCSV(result)
		if err != nil {
			return err
		}
		r.logger.Info(strings.TrimSpace(formatter.BatchSummary(result)))
		return r.writeBytes(data)
	case formatter.JSON:
		data, err := formatter.BatchToJSON(result)
		if err != nil {
			return err
		}
		r.logger.Info(strings.TrimSpace(formatter.BatchSummary(result)))
		return r.writeBytes(data)
	default:
		for _, item := range result.Items {
			if err := r.writePlain("%s\n%s\n", item.Input, formatter.ResultToText(item.Result)); err != nil {
				return err
			}
		}
		return r.writePlain("%s", formatter.BatchSummary(result))
	}
}

// Score prints the normalized inputs and similarity of a source/candidate pair.
func (r *Runner) Score(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	resolver := r.engine.Resolver()
	scorer := resolver.Scorer()
	b := scorer.Explain(
		cmd.String("title"), cmd.String("artist"),
		cmd.String("candidate-title"), cmd.String("candidate-artist"),
	)

	switch format {
	case formatter.JSON:
		data, err := formatter.BreakdownToJSON(b)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	case formatter.Table, formatter.Text:
		return r.writePlain("%s", formatter.BreakdownTable(b, scorer.Weights(), resolver.Threshold()))
	default:
		return fmt.Errorf("%w: score output supports table and json", shared.ErrInvalidFlag)
	}
}

func (r *Runner) readInputFile(path string) ([]string, error) {
	if path == "-" {
		return readInputs(r.input)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	return readInputs(f)
}

// readInputs returns the non-blank lines of src, skipping # comments.
func readInputs(src io.Reader) ([]string, error) {
	var inputs []string

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}

	return inputs, nil
}
