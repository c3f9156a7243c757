package tracker

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Tracker persists the link list for a run to a plain-text file, one URL
// per line. The file is overwritten on every run so it always mirrors the
// list the download loop actually works through.
type Tracker struct {
	Path string
}

func New(path string) *Tracker {
	return &Tracker{Path: path}
}

// Write replaces the tracking file with the given links.
func (t *Tracker) Write(links []string) error {
	f, err := os.Create(t.Path)
	if err != nil {
		return fmt.Errorf("create tracking file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, link := range links {
		if _, err := fmt.Fprintln(w, link); err != nil {
			f.Close()
			return fmt.Errorf("write tracking file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write tracking file: %w", err)
	}
	// Close errors matter here: the buffered data may only hit the disk on
	// close, and a silently truncated file would desync the replay list.
	if err := f.Close(); err != nil {
		return fmt.Errorf("close tracking file: %w", err)
	}
	return nil
}

// Read loads links from a previous run, skipping blank lines. A missing
// file yields an empty list, not an error.
func (t *Tracker) Read() ([]string, error) {
	f, err := os.Open(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open tracking file: %w", err)
	}
	defer f.Close()

	var links []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			links = append(links, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tracking file: %w", err)
	}
	return links, nil
}
