package record

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer persists each finished transcript once, as a plain-text file named
// by its completion timestamp.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Save writes the transcript and returns the path of the record.
func (w *Writer) Save(transcript string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("record dir: %w", err)
	}
	name := time.Now().Format("2006-01-02_15-04-05") + ".txt"
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, []byte(transcript), 0o644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	return path, nil
}
