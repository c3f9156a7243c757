package models

import "time"

// Mode selects what gets fetched for a link.
type Mode int

const (
	ModeAudio Mode = iota + 1
	ModeVideo
	ModeBoth
	ModeTranscript
)

func (m Mode) String() string {
	switch m {
	case ModeAudio:
		return "audio"
	case ModeVideo:
		return "video"
	case ModeBoth:
		return "both"
	case ModeTranscript:
		return "transcript"
	default:
		return "unknown"
	}
}

// Valid reports whether m is one of the four selectable modes.
func (m Mode) Valid() bool {
	return m >= ModeAudio && m <= ModeTranscript
}

// Options carries the per-run download preferences gathered from the user.
type Options struct {
	Mode Mode
	// AudioFormat is the target container for audio extraction (mp3, flac, ...).
	// Ignored when Mode is ModeVideo or ModeTranscript.
	AudioFormat string
}

// Job is one link paired with what should be fetched for it. It exists only
// for the duration of a single download attempt.
type Job struct {
	Link   string
	Mode   Mode
	Format string
	OutDir string
}

// Outcome is the result of handing a Job to the download tool.
type Outcome struct {
	Link    string
	Success bool
	Err     error
}

// Rotation describes one identity-rotation attempt on the proxy daemon.
type Rotation struct {
	OldAddress string
	NewAddress string
	Changed    bool
	Err        error
}

// Summary is printed at the end of a run. Succeeded+Failed always equals
// the number of links handed to the download loop.
type Summary struct {
	Query     string
	Mode      Mode
	Succeeded int
	Failed    int
	Rotations int
	StartedAt time.Time
}
