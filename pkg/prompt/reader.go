package prompt

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ghosttube/ghosttube/pkg/models"
)

// Reader drives the interactive prompts over any reader/writer pair, so
// the loop itself is testable with canned input.
type Reader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewReader(in io.Reader, out io.Writer) *Reader {
	return &Reader{scanner: bufio.NewScanner(in), out: out}
}

func (r *Reader) line() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// Query prompts until a non-empty search query is entered.
func (r *Reader) Query() (string, error) {
	for {
		fmt.Fprint(r.out, "Enter search query: ")
		input, err := r.line()
		if err != nil {
			return "", err
		}
		if query, ok := ValidateQuery(input); ok {
			return query, nil
		}
		fmt.Fprintln(r.out, "Query must not be empty.")
	}
}

// Mode prompts until a valid menu choice is entered.
func (r *Reader) Mode() (models.Mode, error) {
	fmt.Fprintln(r.out, "\nDownload options:")
	fmt.Fprintln(r.out, "1 - Audio only")
	fmt.Fprintln(r.out, "2 - Video only (MP4)")
	fmt.Fprintln(r.out, "3 - Both audio and video")
	fmt.Fprintln(r.out, "4 - Transcript only")
	for {
		fmt.Fprint(r.out, "Choose 1, 2, 3 or 4: ")
		input, err := r.line()
		if err != nil {
			return 0, err
		}
		if mode, ok := ParseMode(input); ok {
			return mode, nil
		}
		fmt.Fprintln(r.out, "Invalid choice.")
	}
}

// AudioFormat prompts for the audio container, defaulting to mp3.
func (r *Reader) AudioFormat() (string, error) {
	fmt.Fprintln(r.out, "\nSelect audio format:")
	fmt.Fprintln(r.out, "1 - MP3 (default)")
	fmt.Fprintln(r.out, "2 - AAC")
	fmt.Fprintln(r.out, "3 - FLAC")
	fmt.Fprintln(r.out, "4 - WAV")
	fmt.Fprintln(r.out, "5 - OGG")
	fmt.Fprintln(r.out, "6 - Opus")
	fmt.Fprintln(r.out, "7 - M4A")
	fmt.Fprintln(r.out, "8 - Custom")
	for {
		fmt.Fprint(r.out, "Choose format (1-8, or press Enter for MP3): ")
		input, err := r.line()
		if err != nil {
			return "", err
		}
		format, needsCustom, ok := ParseAudioFormat(input)
		if !ok {
			fmt.Fprintln(r.out, "Invalid choice.")
			continue
		}
		if !needsCustom {
			return format, nil
		}
		fmt.Fprint(r.out, "Enter custom format (e.g. alac): ")
		custom, err := r.line()
		if err != nil {
			return "", err
		}
		return NormalizeCustomFormat(custom), nil
	}
}

// YesNo prompts until a y/n answer is entered.
func (r *Reader) YesNo(question string) (bool, error) {
	for {
		fmt.Fprintf(r.out, "%s (y/n): ", question)
		input, err := r.line()
		if err != nil {
			return false, err
		}
		if value, ok := ParseYesNo(input); ok {
			return value, nil
		}
		fmt.Fprintln(r.out, "Please answer y or n.")
	}
}
