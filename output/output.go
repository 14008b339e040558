package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RowanDark/gstr/config"
)

// Frequency is a distinct value and how often it occurred.
type Frequency struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Report summarises one interning run.
type Report struct {
	Sources       int         `json:"sources"`
	Tokens        int         `json:"tokens"`
	Skipped       int         `json:"skipped"`
	Unique        int         `json:"unique"`
	BytesIn       int64       `json:"bytes_in"`
	BytesRetained int64       `json:"bytes_retained"`
	SavedBytes    int64       `json:"saved_bytes"`
	DedupRatio    float64     `json:"dedup_ratio"`
	HitRate       float64     `json:"hit_rate"`
	Policy        string      `json:"policy"`
	Shards        int         `json:"shards"`
	Evictions     uint64      `json:"evictions"`
	Duration      string      `json:"duration"`
	GeneratedAt   string      `json:"generated_at"`
	Top           []Frequency `json:"top"`
}

// Writer serialises reports to stdout or a file in a configured format.
type Writer struct {
	format      config.Format
	pretty      bool
	destination io.Writer
	closer      io.Closer
	buffered    *bufio.Writer
}

// NewWriter creates a writer configured according to cfg. Reports go to
// stdout when cfg has no output path.
func NewWriter(cfg *config.Config, stdout io.Writer) (*Writer, error) {
	var (
		dest   io.Writer
		closer io.Closer
	)

	if cfg.LiveOutput() {
		if stdout == nil {
			stdout = os.Stdout
		}
		dest = stdout
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
		file, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("opening output file: %w", err)
		}
		dest = file
		closer = file
	}

	switch cfg.Format {
	case config.FormatJSON, config.FormatCSV, config.FormatTXT:
	default:
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}

	buffered := bufio.NewWriter(dest)
	return &Writer{
		format:      cfg.Format,
		pretty:      cfg.JSONPretty,
		destination: buffered,
		closer:      closer,
		buffered:    buffered,
	}, nil
}

// WriteReport persists report using the configured format.
func (w *Writer) WriteReport(report Report) error {
	if report.GeneratedAt == "" {
		report.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if report.Top == nil {
		report.Top = []Frequency{}
	}

	var err error
	switch w.format {
	case config.FormatJSON:
		err = w.writeJSON(report)
	case config.FormatCSV:
		err = w.writeCSV(report)
	case config.FormatTXT:
		err = w.writeTXT(report)
	default:
		err = fmt.Errorf("unsupported output format: %s", w.format)
	}
	if err != nil {
		return err
	}
	return w.buffered.Flush()
}

func (w *Writer) writeJSON(report Report) error {
	encoder := json.NewEncoder(w.destination)
	encoder.SetEscapeHTML(false)
	if w.pretty {
		encoder.SetIndent("", "    ")
	}
	return encoder.Encode(report)
}

func summaryRows(report Report) [][2]string {
	return [][2]string{
		{"sources", strconv.Itoa(report.Sources)},
		{"tokens", strconv.Itoa(report.Tokens)},
		{"skipped", strconv.Itoa(report.Skipped)},
		{"unique", strconv.Itoa(report.Unique)},
		{"bytes_in", strconv.FormatInt(report.BytesIn, 10)},
		{"bytes_retained", strconv.FormatInt(report.BytesRetained, 10)},
		{"saved_bytes", strconv.FormatInt(report.SavedBytes, 10)},
		{"dedup_ratio", strconv.FormatFloat(report.DedupRatio, 'f', 2, 64)},
		{"hit_rate", strconv.FormatFloat(report.HitRate, 'f', 1, 64)},
		{"policy", report.Policy},
		{"shards", strconv.Itoa(report.Shards)},
		{"evictions", strconv.FormatUint(report.Evictions, 10)},
		{"duration", report.Duration},
		{"generated_at", report.GeneratedAt},
	}
}

func (w *Writer) writeCSV(report Report) error {
	csvWriter := csv.NewWriter(w.destination)
	if err := csvWriter.Write([]string{"kind", "name", "value"}); err != nil {
		return err
	}
	for _, row := range summaryRows(report) {
		if err := csvWriter.Write([]string{"summary", row[0], row[1]}); err != nil {
			return err
		}
	}
	for _, f := range report.Top {
		if err := csvWriter.Write([]string{"top", f.Value, strconv.Itoa(f.Count)}); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func (w *Writer) writeTXT(report Report) error {
	var builder strings.Builder
	for _, row := range summaryRows(report) {
		builder.WriteString(fmt.Sprintf("%-15s %s\n", row[0]+":", row[1]))
	}
	if len(report.Top) > 0 {
		builder.WriteString("Most repeated:\n")
		for i, f := range report.Top {
			builder.WriteString(fmt.Sprintf("  %2d. %8d  %q\n", i+1, f.Count, f.Value))
		}
	}
	_, err := io.WriteString(w.destination, builder.String())
	return err
}

// Close flushes any buffered data and closes owned file handles.
func (w *Writer) Close() error {
	if w.buffered != nil {
		if err := w.buffered.Flush(); err != nil {
			return err
		}
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
