package collector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ghosttube/ghosttube/pkg/history"
	"github.com/ghosttube/ghosttube/pkg/mediapath"
	"github.com/ghosttube/ghosttube/pkg/models"
	"github.com/ghosttube/ghosttube/pkg/search"
	"github.com/ghosttube/ghosttube/pkg/tracker"
	"github.com/ghosttube/ghosttube/pkg/ytdlp"
)

// IdentityController is the run-scoped slice of the proxy controller the
// service depends on; satisfied by *torctl.Controller and by fakes in tests.
type IdentityController interface {
	RotateIdentity(ctx context.Context) models.Rotation
	ExitAddress(ctx context.Context) (string, error)
	Close() error
}

// Service drives one collection run: search, tracking file, sequential
// downloads and periodic identity rotation.
type Service struct {
	Search     *search.Client
	Tracker    *tracker.Tracker
	Controller IdentityController
	Runner     ytdlp.Runner
	History    *history.Store
	OutputDir  string
	Interval   int
}

// Collect searches for the query and persists the result list to the
// tracking file, so the file and the list the download loop works through
// never diverge. A search failure degrades to an empty list with a
// warning. An empty result leaves the previous tracking file in place so
// the shell can offer to replay it.
func (s *Service) Collect(ctx context.Context, query string) ([]string, error) {
	links, err := s.Search.Search(ctx, query)
	if err != nil {
		slog.Warn("search failed", "query", query, "error", err)
		links = nil
	}
	if len(links) == 0 {
		return nil, nil
	}
	if err := s.Tracker.Write(links); err != nil {
		return nil, fmt.Errorf("persist link list: %w", err)
	}
	return links, nil
}

// Replay loads the link list left behind by a previous run.
func (s *Service) Replay() ([]string, error) {
	return s.Tracker.Read()
}

// Download works through links strictly in order, one at a time, invoking
// the download tool per link and rotating identity every Interval
// completed attempts. A failing link is logged and skipped; the returned
// summary's Succeeded+Failed always equals len(links).
func (s *Service) Download(ctx context.Context, query string, links []string, opts models.Options) models.Summary {
	summary := models.Summary{
		Query:     query,
		Mode:      opts.Mode,
		StartedAt: time.Now(),
	}

	queryDir := mediapath.SanitizeQuery(query)
	state := NewRotationState(s.Interval)

	var runID int64
	if s.History != nil {
		id, err := s.History.BeginRun(ctx, query, opts.Mode.String())
		if err != nil {
			slog.Warn("history disabled for this run", "error", err)
		} else {
			runID = id
		}
	}

	for i, link := range links {
		slog.Info("downloading", "n", i+1, "total", len(links), "link", link)

		outcome := s.downloadOne(ctx, link, queryDir, opts)
		if outcome.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
			slog.Warn("download failed", "link", link, "error", outcome.Err)
		}

		if runID != 0 {
			detail := ""
			if outcome.Err != nil {
				detail = outcome.Err.Error()
			}
			if err := s.History.RecordDownload(ctx, runID, link, outcome.Success, detail); err != nil {
				slog.Warn("could not record download", "error", err)
			}
		}

		// Counter advances on every attempt so cadence stays tied to
		// attempts, not to transferred bytes.
		if state.Advance() {
			rot := s.Controller.RotateIdentity(ctx)
			logRotation(rot)
		}
	}

	summary.Rotations = state.Rotations()

	if runID != 0 {
		if err := s.History.FinishRun(ctx, runID, summary.Succeeded, summary.Failed); err != nil {
			slog.Warn("could not finalize run history", "error", err)
		}
	}
	return summary
}

// downloadOne runs every tool invocation a link needs for the selected
// mode. ModeBoth is two invocations (audio then video) into their own
// type directories; the link counts as one attempt either way.
func (s *Service) downloadOne(ctx context.Context, link, queryDir string, opts models.Options) models.Outcome {
	jobs, err := s.jobsFor(link, queryDir, opts)
	if err != nil {
		return models.Outcome{Link: link, Err: err}
	}

	for _, job := range jobs {
		if out := s.Runner.Run(ctx, job); !out.Success {
			return out
		}
	}
	return models.Outcome{Link: link, Success: true}
}

func (s *Service) jobsFor(link, queryDir string, opts models.Options) ([]models.Job, error) {
	var modes []models.Mode
	switch opts.Mode {
	case models.ModeBoth:
		modes = []models.Mode{models.ModeAudio, models.ModeVideo}
	case models.ModeAudio, models.ModeVideo, models.ModeTranscript:
		modes = []models.Mode{opts.Mode}
	default:
		return nil, fmt.Errorf("invalid mode %d", opts.Mode)
	}

	jobs := make([]models.Job, 0, len(modes))
	for _, mode := range modes {
		outDir, err := s.ensureModeDir(mode, queryDir)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, models.Job{
			Link:   link,
			Mode:   mode,
			Format: opts.AudioFormat,
			OutDir: outDir,
		})
	}
	return jobs, nil
}

// ensureModeDir lazily creates output/{type}/{sanitized query}. MkdirAll
// keeps re-runs into the same folders safe.
func (s *Service) ensureModeDir(mode models.Mode, queryDir string) (string, error) {
	typeDir := mode.String()
	if mode == models.ModeTranscript {
		typeDir = "transcripts"
	}
	dir := filepath.Join(s.OutputDir, typeDir, queryDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return dir, nil
}

// Close releases run-scoped resources (control session, history store).
func (s *Service) Close() {
	if s.Controller != nil {
		if err := s.Controller.Close(); err != nil {
			slog.Warn("closing control session", "error", err)
		}
	}
	if err := s.History.Close(); err != nil {
		slog.Warn("closing history store", "error", err)
	}
}

func logRotation(rot models.Rotation) {
	if rot.Err != nil {
		slog.Warn("identity rotation failed, continuing with current identity",
			"old_address", rot.OldAddress, "error", rot.Err)
		return
	}
	slog.Info("identity rotated",
		"old_address", rot.OldAddress,
		"new_address", rot.NewAddress,
		"changed", rot.Changed)
}
