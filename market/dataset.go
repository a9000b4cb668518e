package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"
)

// LoadCSV reads a bar dataset into a BarSeries. The expected row format is
//
//	time,open,high,low,close,volume
//
// with an optional header row. Timestamps are RFC3339, "2006-01-02 15:04:05"
// or plain dates. Compressed datasets are handled by extension:
// ".xz" streams through an xz reader, ".zip" is extracted to a temp
// directory and the first CSV inside is loaded.
func LoadCSV(path, instrument string) (*BarSeries, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return loadZip(path, instrument)
	case ".xz":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		return ReadCSV(r, instrument)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f, instrument)
	}
}

func loadZip(path, instrument string) (*BarSeries, error) {
	dir, err := os.MkdirTemp("", "bars-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if err := unzip.Extract(path, dir); err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	var csvPath string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if csvPath == "" && !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".csv") {
			csvPath = p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if csvPath == "" {
		return nil, fmt.Errorf("no CSV file inside %s", path)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, instrument)
}

// ReadCSV parses bar rows from r. The series is validated before it is
// returned, so callers can assume strictly increasing timestamps.
func ReadCSV(r io.Reader, instrument string) (*BarSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	s := &BarSeries{Instrument: instrument}

	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if first {
			first = false
			// Header row, e.g. "time,open,high,low,close,volume"
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") ||
				strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		b, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		s.Bars = append(s.Bars, b)
	}

	if len(s.Bars) == 0 {
		return nil, fmt.Errorf("no bars for %s", instrument)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseBarRow(row []string) (Bar, error) {
	if len(row) < 5 {
		return Bar{}, fmt.Errorf("bad row (need time,open,high,low,close[,volume]): %v", row)
	}

	t, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return Bar{}, err
	}

	vals := make([]float64, 0, 5)
	for _, col := range row[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad price field %q: %w", col, err)
		}
		vals = append(vals, v)
		if len(vals) == 5 {
			break
		}
	}

	b := Bar{Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
	if len(vals) > 4 {
		b.Volume = vals[4]
	}
	return b, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// Unix seconds as a last resort.
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}
