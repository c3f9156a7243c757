package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ghosttube/ghosttube/pkg/models"
)

var commandContext = exec.CommandContext

// OutputTemplate is the download tool's native filename template.
const OutputTemplate = "%(title)s.%(ext)s"

// Runner resolves one job into files on disk via the external download
// tool. Narrow on purpose so tests can substitute a fake without touching
// the network or a real decoder.
type Runner interface {
	Run(ctx context.Context, job models.Job) models.Outcome
}

// Option configures the CLI runner.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithProxy routes the tool's traffic through the given SOCKS proxy URL.
func WithProxy(proxyURL string) Option {
	return func(c *CLI) {
		c.proxyURL = proxyURL
	}
}

// CLI wraps the yt-dlp command-line tool.
type CLI struct {
	binary   string
	proxyURL string
}

// NewCLI constructs a runner using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "yt-dlp"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Run invokes the tool for a single-mode job. ModeBoth jobs must be split
// by the caller into an audio job and a video job.
func (c *CLI) Run(ctx context.Context, job models.Job) models.Outcome {
	out := models.Outcome{Link: job.Link}

	args, err := c.buildArgs(job)
	if err != nil {
		out.Err = err
		return out
	}

	cmd := commandContext(ctx, c.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		slog.Debug("download tool failed", "link", job.Link, "output", strings.TrimSpace(string(output)))
		out.Err = fmt.Errorf("%s %s: %w", c.binary, job.Mode, err)
		return out
	}

	out.Success = true
	return out
}

func (c *CLI) buildArgs(job models.Job) ([]string, error) {
	if job.Link == "" {
		return nil, errors.New("link required")
	}
	if job.OutDir == "" {
		return nil, errors.New("output directory required")
	}

	var args []string
	if c.proxyURL != "" {
		args = append(args, "--proxy", c.proxyURL)
	}

	switch job.Mode {
	case models.ModeAudio:
		format := job.Format
		if format == "" {
			format = "mp3"
		}
		args = append(args, "-x", "--audio-format", format, "--audio-quality", "0")
	case models.ModeVideo:
		args = append(args, "-f", "bestvideo+bestaudio", "--merge-output-format", "mp4")
	case models.ModeTranscript:
		args = append(args, "--skip-download", "--write-auto-sub", "--sub-lang", "en", "--convert-subs", "txt")
	default:
		return nil, fmt.Errorf("mode %s cannot be run as a single invocation", job.Mode)
	}

	args = append(args, "-o", filepath.Join(job.OutDir, OutputTemplate), job.Link)
	return args, nil
}
