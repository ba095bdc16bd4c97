package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cmlsync/internal/exchange"
	"cmlsync/pkg/utils"
)

// Report is the summary printed after a run
type Report struct {
	RunID      string    `yaml:"run_id"`
	Mode       string    `yaml:"mode"`
	Status     string    `yaml:"status"`
	Kind       string    `yaml:"error_kind,omitempty"`
	Error      string    `yaml:"error,omitempty"`
	Manifest   []string  `yaml:"manifest,omitempty"`
	Imported   []string  `yaml:"imported,omitempty"`
	ChunkLimit int64     `yaml:"chunk_limit,omitempty"`
	BytesSent  int64     `yaml:"bytes_sent"`
	Checksum   string    `yaml:"sha256,omitempty"`
	Started    time.Time `yaml:"started"`
	Duration   string    `yaml:"duration"`
}

// NewReport summarizes res
func NewReport(res exchange.Result) Report {
	r := Report{
		RunID:      res.RunID,
		Mode:       res.Mode.String(),
		Status:     res.Status.String(),
		Manifest:   res.Manifest,
		Imported:   res.Imported(),
		ChunkLimit: res.ChunkLimit,
		BytesSent:  res.BytesSent,
		Checksum:   res.Checksum,
		Started:    res.Started,
		Duration:   res.Duration().Round(time.Millisecond).String(),
	}
	if kind, ok := res.Kind(); ok {
		r.Kind = kind.String()
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}

// WriteReport writes the report of res in format "text" (default) or "yaml"
func WriteReport(w io.Writer, res exchange.Result, format string) error {
	report := NewReport(res)

	switch strings.ToLower(format) {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	case "", "text":
		return writeText(w, report)
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

func writeText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=============================================\n")
	fmt.Fprintf(&b, "Exchange %s (%s mode)\n", r.Status, r.Mode)
	fmt.Fprintf(&b, "+ Run: %s\n", r.RunID)
	if r.Kind != "" {
		fmt.Fprintf(&b, "+ Error: %s\n", r.Error)
	}
	if r.BytesSent > 0 {
		fmt.Fprintf(&b, "+ Uploaded: %s\n", utils.FormatFileSize(r.BytesSent))
	}
	if len(r.Manifest) > 0 {
		fmt.Fprintf(&b, "+ Imported: %d of %d (%s)\n", len(r.Imported), len(r.Manifest), strings.Join(r.Imported, ", "))
	}
	fmt.Fprintf(&b, "+ Duration: %s\n", r.Duration)
	fmt.Fprintf(&b, "=============================================\n")

	_, err := io.WriteString(w, b.String())
	return err
}
