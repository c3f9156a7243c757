package torctl

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHTTP struct {
	status int
	body   string
	err    error
}

func (f *fakeHTTP) Do(*http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func TestExitAddressTrimsResponse(t *testing.T) {
	ctrl := New("127.0.0.1:9051", "https://ident.me", time.Millisecond, &fakeHTTP{status: 200, body: "185.220.101.52\n"})

	addr, err := ctrl.ExitAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "185.220.101.52", addr)
}

func TestExitAddressRejectsBadStatus(t *testing.T) {
	ctrl := New("127.0.0.1:9051", "https://ident.me", time.Millisecond, &fakeHTTP{status: 503})

	_, err := ctrl.ExitAddress(context.Background())
	require.Error(t, err)
}

func TestRotateIdentityWithoutSessionReportsError(t *testing.T) {
	ctrl := New("127.0.0.1:9051", "https://ident.me", time.Millisecond, &fakeHTTP{status: 200, body: "1.2.3.4"})

	rot := ctrl.RotateIdentity(context.Background())
	require.Error(t, rot.Err)
	// The pre-rotation probe still ran.
	assert.Equal(t, "1.2.3.4", rot.OldAddress)
	assert.False(t, rot.Changed)
}

func TestConnectUnreachablePort(t *testing.T) {
	ctrl := New("127.0.0.1:1", "https://ident.me", time.Millisecond, &fakeHTTP{})

	err := ctrl.Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestCloseWithoutConnect(t *testing.T) {
	ctrl := New("127.0.0.1:9051", "https://ident.me", time.Millisecond, &fakeHTTP{})
	assert.NoError(t, ctrl.Close())
}
