package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ghosttube/ghosttube/pkg/client"
	"github.com/ghosttube/ghosttube/pkg/config"
	"github.com/ghosttube/ghosttube/pkg/history"
	"github.com/ghosttube/ghosttube/pkg/search"
	"github.com/ghosttube/ghosttube/pkg/torctl"
	"github.com/ghosttube/ghosttube/pkg/tracker"
	"github.com/ghosttube/ghosttube/pkg/ytdlp"
)

// New creates a ready-to-use Service instance with all necessary
// dependencies wired: the proxied HTTP client, search client, tracking
// file, control-channel session, download tool runner and the history
// store. The control session is opened here and held until Close, so the
// environment bootstrap must have run first. A refused control connection
// is an error: downloads never proceed without a working proxy.
func New(cfg *config.Config) (*Service, error) {
	outputDir, err := filepath.Abs(cfg.Paths.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("invalid output dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	httpClient, err := client.NewHTTPClient(client.Options{
		ProxyURL:          cfg.Tor.SocksURL,
		TimeoutSeconds:    cfg.HTTP.TimeoutSeconds,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		BurstLimit:        cfg.HTTP.BurstLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init http client: %w", err)
	}

	controller := torctl.New(
		cfg.Tor.ControlAddress,
		cfg.Probe.URL,
		time.Duration(cfg.Tor.SettleSeconds)*time.Second,
		httpClient,
	)
	if err := controller.Connect(); err != nil {
		return nil, fmt.Errorf("control channel: %w", err)
	}

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		controller.Close()
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	return &Service{
		Search:     search.New(httpClient, cfg.Search.BaseURL, cfg.Search.MaxResults),
		Tracker:    tracker.New(cfg.Paths.URLsFile),
		Controller: controller,
		Runner:     ytdlp.NewCLI(ytdlp.WithBinary(cfg.YTDLP.Binary), ytdlp.WithProxy(cfg.Tor.SocksURL)),
		History:    store,
		OutputDir:  outputDir,
		Interval:   cfg.Rotation.Interval,
	}, nil
}
