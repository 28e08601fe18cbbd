package table

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/windsim/internal/domain"
)

// columnWidth is the fixed column width of the text format.
const columnWidth = 20

// Format selects the on-disk layout of the tables.
type Format string

const (
	// FormatText writes left-aligned fixed-width columns with six significant digits.
	FormatText Format = "text"
	// FormatCSV writes comma-separated values at full precision.
	FormatCSV Format = "csv"
)

// Table names, without extension.
const (
	WindTable       = "WindSpeedData"
	StormTable      = "StormData"
	BurstTable      = "BurstData"
	SimulationTable = "WindSimulationData"
)

// Writer persists a run as four tables in a directory.
// It implements pipeline.Sink.
type Writer struct {
	dir    string
	format Format
	logger *slog.Logger
}

// NewWriter creates a table writer for dir.
func NewWriter(dir string, format Format, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, format: format, logger: logger}
}

func (w *Writer) Name() string { return "tables" }

// Path returns the file path of the named table.
func (w *Writer) Path(table string) string {
	ext := ".txt"
	if w.format == FormatCSV {
		ext = ".csv"
	}
	return filepath.Join(w.dir, table+ext)
}

// Load writes the wind, storm, burst and merged tables, in that order.
func (w *Writer) Load(ctx context.Context, run *domain.Run) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	series := []struct {
		table  string
		header string
		data   domain.Series
	}{
		{WindTable, "Wind-Speed", run.Wind},
		{StormTable, "Storm-Magnitude", run.Storm},
		{BurstTable, "Burst-Magnitude", run.Burst},
	}
	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows := make([][]string, 0, len(s.data)+1)
		rows = append(rows, []string{"Time (s)", s.header})
		for _, sample := range s.data {
			rows = append(rows, []string{w.number(sample.Time), w.number(sample.Value)})
		}
		if err := w.writeTable(s.table, rows); err != nil {
			return err
		}
	}

	rows := make([][]string, 0, len(run.Trace)+1)
	rows = append(rows, []string{"Time (s)", "Speed", "Storm present?"})
	for _, p := range run.Trace {
		rows = append(rows, []string{w.number(p.Time), w.number(p.Speed), w.flag(p.StormPresent)})
	}
	return w.writeTable(SimulationTable, rows)
}

func (w *Writer) writeTable(table string, rows [][]string) error {
	path := w.Path(table)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if w.format == FormatCSV {
		cw := csv.NewWriter(bw)
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	} else {
		for _, row := range rows {
			if _, err := bw.WriteString(fixedWidth(row) + "\n"); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	w.logger.Info("table written", "table", table, "path", path, "rows", len(rows)-1)
	return nil
}

func (w *Writer) number(v float64) string {
	if w.format == FormatCSV {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func (w *Writer) flag(b bool) string {
	if w.format == FormatCSV {
		return strconv.FormatBool(b)
	}
	if b {
		return "1"
	}
	return "0"
}

func fixedWidth(cols []string) string {
	var sb strings.Builder
	for _, c := range cols {
		sb.WriteString(c)
		if pad := columnWidth - len(c); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
	}
	return sb.String()
}
