package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ghosttube/ghosttube/pkg/bootstrap"
	"github.com/ghosttube/ghosttube/pkg/collector"
	"github.com/ghosttube/ghosttube/pkg/config"
	"github.com/ghosttube/ghosttube/pkg/logger"
	"github.com/ghosttube/ghosttube/pkg/models"
	"github.com/ghosttube/ghosttube/pkg/prompt"
)

func main() {
	if err := run(); err != nil {
		slog.Error("run aborted", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.SetupGlobal(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := os.Stdout
	fmt.Fprintln(out, "ghosttube - anonymous media collector")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[1/4] Checking environment...")
	boot := bootstrap.New(cfg.YTDLP.Binary, cfg.Tor.ControlAddress, cfg.Tor.TorrcPath)
	if err := boot.Ensure(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	svc, err := collector.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	// Downloads must never run unproxied: refuse to continue when the
	// proxied path cannot reach the outside world.
	exit, err := svc.Controller.ExitAddress(ctx)
	if err != nil {
		return fmt.Errorf("proxied connectivity check failed (is the daemon's SOCKS port up?): %w", err)
	}
	fmt.Fprintf(out, "Proxy is up, current exit address: %s\n", exit)

	reader := prompt.NewReader(os.Stdin, out)

	query, err := reader.Query()
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}

	fmt.Fprintf(out, "\n[2/4] Searching for %q...\n", query)
	links, err := svc.Collect(ctx, query)
	if err != nil {
		return err
	}

	if len(links) == 0 {
		fmt.Fprintln(out, "No results found.")
		previous, rerr := svc.Replay()
		if rerr == nil && len(previous) > 0 {
			reuse, perr := reader.YesNo(fmt.Sprintf("Reuse the %d links from the previous run", len(previous)))
			if perr == nil && reuse {
				links = previous
			}
		}
		if len(links) == 0 {
			fmt.Fprintln(out, "Summary: no results, nothing downloaded.")
			return nil
		}
	}

	fmt.Fprintf(out, "Found %d links:\n", len(links))
	for i, link := range links {
		fmt.Fprintf(out, "  %d. %s\n", i+1, link)
	}

	fmt.Fprintln(out, "\n[3/4] Download options")
	opts, err := readOptions(reader)
	if err != nil {
		return fmt.Errorf("read options: %w", err)
	}

	if svc.History != nil {
		if count, herr := svc.History.CountForQuery(ctx, query); herr == nil && count > 0 {
			fmt.Fprintf(out, "Note: %d links were already downloaded for this query in earlier runs.\n", count)
		}
	}

	fmt.Fprintf(out, "\n[4/4] Downloading %d links (%s)...\n", len(links), opts.Mode)
	summary := svc.Download(ctx, query, links, opts)

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Summary: %d succeeded, %d failed, %d identity rotations.\n",
		summary.Succeeded, summary.Failed, summary.Rotations)
	return nil
}

func readOptions(reader *prompt.Reader) (models.Options, error) {
	mode, err := reader.Mode()
	if err != nil {
		return models.Options{}, err
	}
	opts := models.Options{Mode: mode}

	if mode == models.ModeAudio || mode == models.ModeBoth {
		format, err := reader.AudioFormat()
		if err != nil {
			return models.Options{}, err
		}
		opts.AudioFormat = format
	}
	return opts, nil
}
