package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
	"github.com/0xmhha/sdlogger/pkg/summary"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// fileJSON is the JSON shape of a session file.
type fileJSON struct {
	Index   uint32 `json:"index"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime string `json:"mod_time"`
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatStatus implements Formatter.FormatStatus.
func (f *jsonFormatter) FormatStatus(w io.Writer, st controller.Status) error {
	return f.encode(w, st)
}

// FormatSessions implements Formatter.FormatSessions.
func (f *jsonFormatter) FormatSessions(w io.Writer, entries []*journal.Entry) error {
	if entries == nil {
		entries = []*journal.Entry{}
	}
	return f.encode(w, entries)
}

// FormatFiles implements Formatter.FormatFiles.
func (f *jsonFormatter) FormatFiles(w io.Writer, files []sessionlog.File) error {
	out := make([]fileJSON, 0, len(files))
	for _, file := range files {
		out = append(out, fileJSON{
			Index:   file.Index,
			Name:    file.Name,
			Path:    file.Path,
			Size:    file.Size,
			ModTime: file.ModTime.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return f.encode(w, out)
}

// FormatSummary implements Formatter.FormatSummary.
func (f *jsonFormatter) FormatSummary(w io.Writer, name string, s summary.Summary) error {
	return f.encode(w, struct {
		File    string          `json:"file"`
		Summary summary.Summary `json:"summary"`
	}{name, s})
}
