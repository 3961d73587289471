package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ids = append(ids, New(now))
	}
	assert.True(t, sort.StringsAreSorted(ids))

	later := New(now.Add(time.Second))
	assert.Greater(t, later, ids[len(ids)-1])
}

func TestTime(t *testing.T) {
	now := time.Date(2024, 1, 15, 14, 30, 0, 123_000_000, time.UTC)
	got, err := Time(New(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	_, err = Time("not-an-id")
	assert.Error(t, err)
}
