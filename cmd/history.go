package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/songmatch/internal/formatter"
	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/repositories"
	"github.com/desertthunder/songmatch/internal/shared"
	"github.com/desertthunder/songmatch/internal/tasks"
)

// History lists recorded resolutions, newest first. With --source it shows only
// the latest resolution of that track.
//
// The database is opened on demand, so history recorded earlier stays readable
// even when recording is currently disabled.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.matches == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		r.track(db)
		r.matches = repositories.NewMatchRepository(db)
	}

	if source := cmd.String("source"); source != "" {
		return r.latest(source, cmd.String("platform"))
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if cmd.Bool("failed") {
		criteria["success"] = false
	}
	if cmd.IsSet("platform") {
		platform, err := models.ParsePlatform(cmd.String("platform"))
		if err != nil {
			return err
		}
		criteria["source_platform"] = platform.String()
	}

	records, err := r.matches.List(criteria)
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.HistoryTable(records))
}

func (r *Runner) latest(source, platformName string) error {
	platform, err := models.ParsePlatform(platformName)
	if err != nil {
		return err
	}
	key, err := tasks.KeyFor(source, platform)
	if err != nil {
		return err
	}

	record, err := r.matches.Latest(key)
	if errors.Is(err, shared.ErrRecordNotFound) {
		return r.writePlain("No matches recorded for %s.\n", key)
	}
	if err != nil {
		return err
	}
	return r.writePlain("%s", formatter.HistoryTable([]*models.MatchRecord{record}))
}
