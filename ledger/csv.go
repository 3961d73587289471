package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CSV is the file-backed ledger. The file starts with Header and gains one
// row per Append; existing rows are never rewritten.
type CSV struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

var _ Ledger = (*CSV)(nil)

// NewCSV opens path for appending, writing the header if the file is new or
// empty and checking it otherwise.
func NewCSV(path string) (*CSV, error) {
	if path == "" {
		return nil, errors.New("ledger: csv path is required")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	j := &CSV{path: path, f: f, w: csv.NewWriter(f)}
	if st.Size() == 0 {
		if err := j.writeRow(Header); err != nil {
			f.Close()
			return nil, err
		}
		return j, nil
	}

	hdr, err := csv.NewReader(io.NewSectionReader(f, 0, st.Size())).Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ledger: read header of %s: %w", path, err)
	}
	if _, err := columns(hdr); err != nil {
		f.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSV) writeRow(row []string) error {
	if err := j.w.Write(row); err != nil {
		return err
	}
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Sync()
}

func (j *CSV) Append(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writeRow(r.row()); err != nil {
		return fmt.Errorf("ledger: append: %w", err)
	}
	return nil
}

// ReadAll parses every row of the file. Columns are located by header name.
func (j *CSV) ReadAll(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", j.path, err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	hdr, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("ledger: read header: %w", err)
	}
	idx, err := columns(hdr)
	if err != nil {
		return nil, err
	}

	out := []Record{}
	for line := 2; ; line++ {
		row, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ledger: line %d: %w", line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("ledger: line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

// columns maps each Header name to its position in hdr.
func columns(hdr []string) (map[string]int, error) {
	idx := make(map[string]int, len(hdr))
	for i, name := range hdr {
		idx[name] = i
	}
	for _, name := range Header {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadHeader, name)
		}
	}
	if len(hdr) != len(Header) {
		extra := slices.DeleteFunc(slices.Clone(hdr), func(s string) bool { return slices.Contains(Header, s) })
		return nil, fmt.Errorf("%w: extra columns %v", ErrBadHeader, extra)
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (Record, error) {
	get := func(name string) string { return row[idx[name]] }

	var (
		rec Record
		err error
	)
	if rec.Timestamp, err = time.Parse(time.RFC3339Nano, get("timestamp")); err != nil {
		return Record{}, fmt.Errorf("timestamp: %w", err)
	}
	ints := []struct {
		name string
		dst  *int64
	}{
		{"order_id", &rec.OrderID},
		{"client_id", &rec.ClientID},
		{"perm_id", &rec.PermID},
		{"con_id", &rec.InstrumentID},
	}
	for _, c := range ints {
		if *c.dst, err = strconv.ParseInt(get(c.name), 10, 64); err != nil {
			return Record{}, fmt.Errorf("%s: %w", c.name, err)
		}
	}
	rec.Symbol = get("symbol")
	rec.Action = get("action")
	rec.OrderType = get("order_type")
	if rec.Size, err = decimal.NewFromString(get("size")); err != nil {
		return Record{}, fmt.Errorf("size: %w", err)
	}
	if s := get("lmt_price"); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return Record{}, fmt.Errorf("lmt_price: %w", err)
		}
		rec.LimitPrice = &p
	}
	return rec, nil
}
