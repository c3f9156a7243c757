package mediapath

import (
	"regexp"
	"strings"
)

var invalidDirChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeQuery turns a raw search query into a directory name that is safe
// on Windows, macOS and Linux. Spaces become underscores; if nothing useful
// survives, a generic fallback is returned.
func SanitizeQuery(query string) string {
	sanitized := invalidDirChars.ReplaceAllString(query, "")
	sanitized = strings.TrimSpace(strings.ReplaceAll(sanitized, " ", "_"))
	if sanitized == "" {
		return "search_results"
	}
	return sanitized
}

var (
	videoIDRe = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube|youtu|youtube-nocookie)\.(?:com|be)/(?:watch\?v=|embed/|v/|.+\?v=|shorts/)?([^&=%\?]{11})`)
	bareIDRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// ExtractVideoID pulls the 11-character video ID out of any of the usual
// YouTube URL shapes, or accepts a bare ID as-is. Returns "" when the input
// does not look like a video link.
func ExtractVideoID(input string) string {
	if matches := videoIDRe.FindStringSubmatch(input); len(matches) >= 2 {
		return matches[1]
	}
	if len(input) == 11 && bareIDRe.MatchString(input) {
		return input
	}
	return ""
}

// IsContentLink reports whether a URL points at the target content host
// (youtube.com, music.youtube.com or the youtu.be shortener).
func IsContentLink(u string) bool {
	return strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be")
}
