package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVHeader(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "submitted_orders.csv")

	l, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,order_id,client_id,perm_id,con_id,symbol,action,size,order_type,lmt_price\n", string(data))
}

func TestCSVAppendKeepsPriorBytes(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "submitted_orders.csv")
	ctx := context.Background()

	l, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, sampleRecord(0)))
	require.NoError(t, l.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// reopening must not write a second header
	l, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, sampleRecord(1)))
	require.NoError(t, l.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(after), string(before)))

	rows, err := csv.NewReader(strings.NewReader(string(after))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"2024-01-15T14:30:01Z", "2", "7", "1001", "1003", "AUD", "SELL", "200", "LMT", "0.6612",
	}, rows[2])
	assert.Equal(t, "", rows[1][9], "market orders carry no limit price")
}

func TestCSVReadsReorderedColumns(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "submitted_orders.csv")
	content := "symbol,action,timestamp,order_id,client_id,perm_id,con_id,size,order_type,lmt_price\n" +
		"EUR,BUY,2024-02-01T10:00:00Z,11,1,99,12087792,25000,MKT,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := NewCSV(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	got, err := l.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EUR", got[0].Symbol)
	assert.Equal(t, int64(12087792), got[0].InstrumentID)
	assert.Equal(t, "25000", got[0].Size.String())
	assert.Nil(t, got[0].LimitPrice)
}

func TestCSVRejectsForeignHeader(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := []struct {
		name   string
		header string
	}{
		{"missing column", "timestamp,order_id,client_id,perm_id,con_id,symbol,action,size,order_type\n"},
		{"extra column", strings.Join(Header, ",") + ",note\n"},
		{"other file", "trade_id,instrument,units\n"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.header), 0o644))
			_, err := NewCSV(path)
			assert.True(t, errors.Is(err, ErrBadHeader), "case %d: %v", i, err)
		})
	}
}

func TestCSVReadAllReportsBadRow(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "submitted_orders.csv")
	content := strings.Join(Header, ",") + "\n" +
		"yesterday,1,1,1,1,EUR,BUY,10,MKT,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := NewCSV(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	_, err = l.ReadAll(context.Background())
	assert.ErrorContains(t, err, "line 2")
}
