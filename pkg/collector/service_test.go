package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghosttube/ghosttube/pkg/models"
)

type fakeRunner struct {
	jobs   []models.Job
	failOn map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, job models.Job) models.Outcome {
	f.jobs = append(f.jobs, job)
	if f.failOn[job.Link] {
		return models.Outcome{Link: job.Link, Err: errors.New("tool reported failure")}
	}
	return models.Outcome{Link: job.Link, Success: true}
}

type fakeController struct {
	rotations int
}

func (f *fakeController) RotateIdentity(context.Context) models.Rotation {
	f.rotations++
	return models.Rotation{OldAddress: "1.1.1.1", NewAddress: "2.2.2.2", Changed: true}
}

func (f *fakeController) ExitAddress(context.Context) (string, error) { return "1.1.1.1", nil }
func (f *fakeController) Close() error                                { return nil }

func newTestService(t *testing.T, interval int) (*Service, *fakeRunner, *fakeController) {
	t.Helper()
	runner := &fakeRunner{failOn: map[string]bool{}}
	controller := &fakeController{}
	svc := &Service{
		Controller: controller,
		Runner:     runner,
		OutputDir:  t.TempDir(),
		Interval:   interval,
	}
	return svc, runner, controller
}

func links(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("https://www.youtube.com/watch?v=video%06d", i))
	}
	return out
}

func TestDownloadEmptySequence(t *testing.T) {
	svc, runner, controller := newTestService(t, 10)

	summary := svc.Download(context.Background(), "no hits", nil, models.Options{Mode: models.ModeAudio})

	assert.Zero(t, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Rotations)
	assert.Empty(t, runner.jobs)
	assert.Zero(t, controller.rotations)
}

func TestDownloadRotationCadence(t *testing.T) {
	tests := []struct {
		n, interval, rotations int
	}{
		{4, 10, 0},
		{10, 10, 1},
		{23, 10, 2},
		{9, 3, 3},
		{2, 1, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d links interval %d", tt.n, tt.interval), func(t *testing.T) {
			svc, _, controller := newTestService(t, tt.interval)

			summary := svc.Download(context.Background(), "q", links(tt.n), models.Options{Mode: models.ModeVideo})

			assert.Equal(t, tt.rotations, controller.rotations)
			assert.Equal(t, tt.rotations, summary.Rotations)
			assert.Equal(t, tt.n, summary.Succeeded+summary.Failed)
		})
	}
}

func TestDownloadFailingLinkDoesNotAbortBatch(t *testing.T) {
	svc, runner, _ := newTestService(t, 10)
	all := links(5)
	runner.failOn[all[1]] = true

	summary := svc.Download(context.Background(), "q", all, models.Options{Mode: models.ModeAudio, AudioFormat: "mp3"})

	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 5, summary.Succeeded+summary.Failed)
	// Every link was attempted, in collection order.
	require.Len(t, runner.jobs, 5)
	for i, job := range runner.jobs {
		assert.Equal(t, all[i], job.Link)
	}
}

func TestDownloadFailedAttemptsStillAdvanceRotation(t *testing.T) {
	svc, runner, controller := newTestService(t, 3)
	all := links(3)
	for _, link := range all {
		runner.failOn[link] = true
	}

	summary := svc.Download(context.Background(), "q", all, models.Options{Mode: models.ModeVideo})

	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 1, controller.rotations)
}

func TestDownloadBothModeRunsTwoJobsPerLink(t *testing.T) {
	svc, runner, _ := newTestService(t, 10)

	summary := svc.Download(context.Background(), "q", links(2), models.Options{Mode: models.ModeBoth, AudioFormat: "flac"})

	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, runner.jobs, 4)
	assert.Equal(t, models.ModeAudio, runner.jobs[0].Mode)
	assert.Equal(t, models.ModeVideo, runner.jobs[1].Mode)
	assert.Equal(t, "flac", runner.jobs[0].Format)
}

func TestDownloadCreatesPerTypePerQueryDirs(t *testing.T) {
	svc, runner, _ := newTestService(t, 10)

	svc.Download(context.Background(), "lofi beats", links(1), models.Options{Mode: models.ModeTranscript})

	require.Len(t, runner.jobs, 1)
	wantDir := filepath.Join(svc.OutputDir, "transcripts", "lofi_beats")
	assert.Equal(t, wantDir, runner.jobs[0].OutDir)

	info, err := os.Stat(wantDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDownloadIsIdempotentAcrossReruns(t *testing.T) {
	svc, _, _ := newTestService(t, 10)
	opts := models.Options{Mode: models.ModeAudio}

	first := svc.Download(context.Background(), "lofi beats", links(2), opts)
	second := svc.Download(context.Background(), "lofi beats", links(2), opts)

	assert.Equal(t, 2, first.Succeeded)
	assert.Equal(t, 2, second.Succeeded)
}

func TestRotationState(t *testing.T) {
	rs := NewRotationState(3)
	var due int
	for i := 0; i < 7; i++ {
		if rs.Advance() {
			due++
		}
	}
	assert.Equal(t, 2, due)
	assert.Equal(t, 2, rs.Rotations())

	disabled := NewRotationState(0)
	assert.False(t, disabled.Advance())
}
