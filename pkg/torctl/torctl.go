package torctl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/cretz/bine/control"

	"github.com/ghosttube/ghosttube/pkg/client"
	"github.com/ghosttube/ghosttube/pkg/models"
)

// Controller owns the authenticated control-channel session to the local
// anonymity daemon. It is created at run start and closed at run end; the
// download loop triggers rotations, the controller never self-schedules.
type Controller struct {
	ControlAddress string
	ProbeURL       string
	SettleDelay    time.Duration
	HTTP           client.HTTPClient

	conn *control.Conn
}

// New returns an unconnected controller. Call Connect before use.
func New(controlAddress, probeURL string, settleDelay time.Duration, httpClient client.HTTPClient) *Controller {
	return &Controller{
		ControlAddress: controlAddress,
		ProbeURL:       probeURL,
		SettleDelay:    settleDelay,
		HTTP:           httpClient,
	}
}

// Connect opens the control connection and authenticates using the
// daemon's cookie file (negotiated via PROTOCOLINFO). An unreachable port
// or failed authentication is returned to the caller; it is fatal for the
// run because downloads must not proceed unproxied.
func (c *Controller) Connect() error {
	netConn, err := net.DialTimeout("tcp", c.ControlAddress, 10*time.Second)
	if err != nil {
		return fmt.Errorf("control port %s unreachable: %w", c.ControlAddress, err)
	}

	conn := control.NewConn(textproto.NewConn(netConn))
	if err := conn.Authenticate(""); err != nil {
		conn.Close()
		return fmt.Errorf("control authentication failed: %w", err)
	}

	c.conn = conn
	return nil
}

// Close tears down the control session. Safe to call when never connected.
func (c *Controller) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// ExitAddress asks the configured address service, through the proxy, what
// the current exit address is. Best effort: failures are returned so the
// caller can log them, never escalate them.
func (c *Controller) ExitAddress(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProbeURL, nil)
	if err != nil {
		return "", fmt.Errorf("build probe request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("probe status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fmt.Errorf("read probe response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// RotateIdentity sends a new-circuit signal, waits for the circuit to
// settle and re-queries the exit address. The returned Rotation always
// carries the before/after addresses that could be observed; Err is set
// when the signal itself was rejected.
func (c *Controller) RotateIdentity(ctx context.Context) models.Rotation {
	rot := models.Rotation{}

	oldAddr, err := c.ExitAddress(ctx)
	if err != nil {
		slog.Warn("could not observe exit address before rotation", "error", err)
	}
	rot.OldAddress = oldAddr

	if c.conn == nil {
		rot.Err = fmt.Errorf("control session not connected")
		return rot
	}
	if err := c.conn.Signal("NEWNYM"); err != nil {
		rot.Err = fmt.Errorf("newnym signal: %w", err)
		return rot
	}

	select {
	case <-time.After(c.SettleDelay):
	case <-ctx.Done():
		rot.Err = ctx.Err()
		return rot
	}

	newAddr, err := c.ExitAddress(ctx)
	if err != nil {
		slog.Warn("could not observe exit address after rotation", "error", err)
	}
	rot.NewAddress = newAddr
	rot.Changed = oldAddr != "" && newAddr != "" && oldAddr != newAddr
	return rot
}
