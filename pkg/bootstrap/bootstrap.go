package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

var (
	commandContext = exec.CommandContext
	command        = exec.Command
	lookPath       = exec.LookPath
)

// Requirement defines an external binary the collector relies on.
type Requirement struct {
	Name        string
	Command     string
	Remediation string
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		_, err := lookPath(req.Command)
		results = append(results, Status{Requirement: req, Available: err == nil})
	}
	return results
}

// Bootstrapper ensures the anonymity daemon and the download tool are
// installed, configured and running before any download starts. Every
// failure here is fatal to the run: downloads must never proceed unproxied.
type Bootstrapper struct {
	TorBinary      string
	YTDLPBinary    string
	ControlAddress string
	// TorrcPath overrides torrc discovery (used in tests).
	TorrcPath string
	// StartupWait bounds how long to wait for the control port after
	// starting the daemon.
	StartupWait time.Duration
}

// New returns a bootstrapper with defaults applied.
func New(ytdlpBinary, controlAddress, torrcPath string) *Bootstrapper {
	if ytdlpBinary == "" {
		ytdlpBinary = "yt-dlp"
	}
	return &Bootstrapper{
		TorBinary:      "tor",
		YTDLPBinary:    ytdlpBinary,
		ControlAddress: controlAddress,
		TorrcPath:      torrcPath,
		StartupWait:    30 * time.Second,
	}
}

// Ensure runs the full bootstrap sequence: binary checks (with one install
// attempt for the daemon), control-channel configuration and daemon
// startup. It returns a remediation-bearing error on the first
// unrecoverable step.
func (b *Bootstrapper) Ensure(ctx context.Context) error {
	statuses := CheckBinaries([]Requirement{
		{
			Name:        "anonymity daemon",
			Command:     b.TorBinary,
			Remediation: "install tor with your package manager (pkg install tor / apt install tor)",
		},
		{
			Name:        "download tool",
			Command:     b.YTDLPBinary,
			Remediation: "install yt-dlp (pkg install yt-dlp / pip install yt-dlp)",
		},
	})

	for _, st := range statuses {
		if st.Available {
			slog.Info("binary available", "name", st.Name, "command", st.Command)
			continue
		}
		if st.Command == b.TorBinary {
			slog.Warn("anonymity daemon not found, attempting install", "command", b.TorBinary)
			if err := b.installTor(ctx); err != nil {
				return fmt.Errorf("%s missing and install failed (%v); %s", st.Name, err, st.Remediation)
			}
			if _, err := lookPath(b.TorBinary); err != nil {
				return fmt.Errorf("%s still missing after install; %s", st.Name, st.Remediation)
			}
			slog.Info("anonymity daemon installed", "command", b.TorBinary)
			continue
		}
		return fmt.Errorf("%s (%s) not found; %s", st.Name, st.Command, st.Remediation)
	}

	torrcPath := b.TorrcPath
	if torrcPath == "" {
		torrcPath = DefaultTorrcPath()
	}
	changed, err := EnsureControlDirectives(torrcPath)
	if err != nil {
		return fmt.Errorf("configure %s: %w", torrcPath, err)
	}
	if changed {
		slog.Info("enabled control channel in daemon configuration", "path", torrcPath)
	} else {
		slog.Debug("daemon configuration already enables control channel", "path", torrcPath)
	}

	return b.ensureDaemon(ctx, changed)
}

// installTor installs the daemon through the host package manager. Only
// the mobile terminal environment gets an automatic path; desktop systems
// typically need root, so they get remediation instructions instead.
func (b *Bootstrapper) installTor(ctx context.Context) error {
	if !isTermux() {
		return fmt.Errorf("automatic install only supported under Termux")
	}
	cmd := commandContext(ctx, "pkg", "install", "-y", "tor")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pkg install tor: %w (%s)", err, string(output))
	}
	return nil
}

// ensureDaemon starts the daemon in the background when the control port
// is not listening, then waits for it. A configuration change requires a
// restart to take effect, which is left to the daemon's own supervision;
// we only ever start a missing daemon, never kill a running one.
func (b *Bootstrapper) ensureDaemon(ctx context.Context, configChanged bool) error {
	if portListening(b.ControlAddress) {
		if configChanged {
			slog.Warn("daemon already running with old configuration; restart tor if control authentication fails")
		}
		slog.Info("control port listening", "address", b.ControlAddress)
		return nil
	}

	slog.Info("starting anonymity daemon", "command", b.TorBinary)
	// Plain Command, not CommandContext: the daemon must outlive this
	// process and must not be killed when the run's context is cancelled.
	cmd := command(b.TorBinary)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w; start the daemon manually and re-run", b.TorBinary, err)
	}
	// Detach: the daemon outlives this process and the run never waits on it.
	if cmd.Process != nil {
		_ = cmd.Process.Release()
	}

	deadline := time.Now().Add(b.StartupWait)
	for time.Now().Before(deadline) {
		if portListening(b.ControlAddress) {
			slog.Info("control port listening", "address", b.ControlAddress)
			return nil
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("control port %s not listening after %s; check the daemon's log and re-run", b.ControlAddress, b.StartupWait)
}

func portListening(address string) bool {
	conn, err := net.DialTimeout("tcp", address, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// DefaultTorrcPath returns the platform's torrc location.
func DefaultTorrcPath() string {
	if prefix := os.Getenv("PREFIX"); prefix != "" && isTermux() {
		return filepath.Join(prefix, "etc", "tor", "torrc")
	}
	return "/etc/tor/torrc"
}

func isTermux() bool {
	return os.Getenv("TERMUX_VERSION") != "" || os.Getenv("TERMUX__PREFIX") != "" ||
		fileExists("/data/data/com.termux/files/usr/bin")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
