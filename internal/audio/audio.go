package audio

import (
	"path/filepath"
	"strings"
)

// Segment is one bounded-duration slice of a source recording.
type Segment struct {
	Index  int    // 0-based position within the source
	Total  int    // total segment count for the source
	Path   string // local file holding the payload
	Format string // transport format declared to the inference service
}

var formatByExt = map[string]string{
	".wav":  "wav",
	".mp3":  "mp3",
	".ogg":  "ogg",
	".flac": "flac",
	".aac":  "aac",
	".m4a":  "mp4",
	".wma":  "wma",
}

// FormatFor maps a filename to the format label sent to the inference
// service. Unknown extensions fall back to wav.
func FormatFor(path string) string {
	if f, ok := formatByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return "wav"
}
