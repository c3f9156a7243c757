// Package prompt holds the interactive shell's input handling. Validation
// is pure functions over strings so it can be tested without a terminal;
// the Reader is the thin I/O loop that re-prompts until a validator
// accepts the input.
package prompt

import (
	"strings"

	"github.com/ghosttube/ghosttube/pkg/models"
)

// ValidateQuery trims the input and rejects empty queries.
func ValidateQuery(input string) (string, bool) {
	query := strings.TrimSpace(input)
	return query, query != ""
}

// ParseMode maps a menu choice (1-4) to a download mode.
func ParseMode(input string) (models.Mode, bool) {
	switch strings.TrimSpace(input) {
	case "1":
		return models.ModeAudio, true
	case "2":
		return models.ModeVideo, true
	case "3":
		return models.ModeBoth, true
	case "4":
		return models.ModeTranscript, true
	default:
		return 0, false
	}
}

var audioFormats = map[string]string{
	"1": "mp3",
	"2": "aac",
	"3": "flac",
	"4": "wav",
	"5": "ogg",
	"6": "opus",
	"7": "m4a",
}

// ParseAudioFormat maps the audio format menu choice to a format code.
// Empty input defaults to mp3; choice 8 asks for a custom code
// (needsCustom). Anything else is rejected.
func ParseAudioFormat(input string) (format string, needsCustom, ok bool) {
	choice := strings.TrimSpace(input)
	if choice == "" {
		return "mp3", false, true
	}
	if choice == "8" {
		return "", true, true
	}
	if f, known := audioFormats[choice]; known {
		return f, false, true
	}
	return "", false, false
}

// NormalizeCustomFormat cleans a free-form format code; empty input falls
// back to mp3.
func NormalizeCustomFormat(input string) string {
	format := strings.ToLower(strings.TrimSpace(input))
	if format == "" {
		return "mp3"
	}
	return format
}

// ParseYesNo accepts y/yes/n/no in any case.
func ParseYesNo(input string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	default:
		return false, false
	}
}
