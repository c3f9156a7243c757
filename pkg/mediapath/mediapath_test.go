package mediapath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"spaces become underscores", "lofi beats", "lofi_beats"},
		{"invalid chars stripped", `Kiss: Greatest/Hits?`, "Kiss_GreatestHits"},
		{"already clean", "mixtape", "mixtape"},
		{"only invalid chars", `<>:"/\|?*`, "search_results"},
		{"empty", "", "search_results"},
		{"surrounding whitespace trimmed", "  jazz  ", "jazz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeQuery(tt.query))
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts url", "https://youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"not a video", "https://example.com/watch?v=nope", ""},
		{"garbage", "hello", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.input))
		})
	}
}

func TestIsContentLink(t *testing.T) {
	assert.True(t, IsContentLink("https://www.youtube.com/watch?v=abc"))
	assert.True(t, IsContentLink("https://music.youtube.com/watch?v=abc"))
	assert.True(t, IsContentLink("https://youtu.be/abc"))
	assert.False(t, IsContentLink("https://vimeo.com/12345"))
}
