package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashm-dev/first-erdos-problem/internal/sidon"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreResultRoundTrip(t *testing.T) {
	s := openTestStore(t)

	has, err := s.HasOptimal(5)
	require.NoError(t, err)
	assert.False(t, has)

	res := &sidon.Result{
		N:             5,
		MaxValue:      13,
		Set:           []uint64{6, 9, 11, 12, 13},
		Elapsed:       42 * time.Millisecond,
		Status:        sidon.StatusOptimal,
		NodesExplored: 1234,
		Timestamp:     time.Now().UTC(),
	}
	require.NoError(t, s.SaveResult(res))

	got, err := s.LoadResult(5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.N, got.N)
	assert.Equal(t, res.MaxValue, got.MaxValue)
	assert.Equal(t, res.Set, got.Set)
	assert.Equal(t, res.Status, got.Status)
	assert.Equal(t, res.NodesExplored, got.NodesExplored)

	has, err = s.HasOptimal(5)
	require.NoError(t, err)
	assert.True(t, has)

	bound, ok, err := s.BestBound(5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(13), bound)
}

func TestStoreInterruptedIsNotOptimal(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveResult(&sidon.Result{
		N:        9,
		MaxValue: 89,
		Set:      []uint64{20, 31, 37, 40, 43, 45, 46, 47, 89},
		Status:   sidon.StatusInterrupted,
	}))

	has, err := s.HasOptimal(9)
	require.NoError(t, err)
	assert.False(t, has, "interrupted result must not count as solved")

	// But its best max still seeds the bound.
	bound, ok, err := s.BestBound(9)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(89), bound)
}

func TestStoreOptimalSets(t *testing.T) {
	s := openTestStore(t)

	sets, err := s.LoadOptimalSets(5)
	require.NoError(t, err)
	assert.Nil(t, sets)

	want := [][]uint64{
		{6, 9, 11, 12, 13},
		{3, 6, 11, 12, 13},
	}
	require.NoError(t, s.SaveOptimalSets(5, want))

	sets, err = s.LoadOptimalSets(5)
	require.NoError(t, err)
	assert.Equal(t, want, sets)
}

func TestStoreResultsListing(t *testing.T) {
	s := openTestStore(t)

	for n := 2; n <= 4; n++ {
		require.NoError(t, s.SaveResult(&sidon.Result{N: n, Status: sidon.StatusOptimal}))
	}

	results, err := s.Results()
	require.NoError(t, err)
	require.Len(t, results, 3)

	seen := map[int]bool{}
	for _, r := range results {
		seen[r.N] = true
	}
	assert.Equal(t, map[int]bool{2: true, 3: true, 4: true}, seen)
}

func TestDatabaseDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SIDON_DB_DIR", dir)

	got, err := DatabaseDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}
