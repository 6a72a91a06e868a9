package nem12repo

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/milad/nem12/internal/domain"
	"github.com/milad/nem12/internal/nem12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meters.nem12")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewFromFile_LoadsReads(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "100\n200,1234567890,KWH\n300,20230101,1,A\n200,0987654321,KWH\n200,1234567890,KWH\n900\n")

	r, err := NewFromFile(path)
	require.NoError(t, err)

	all, err := r.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "0987654321", all[1].NMI)

	one, err := r.List(context.Background(), "1234567890")
	require.NoError(t, err)
	require.Len(t, one, 2)
	assert.Equal(t, 1, one[0].Len())
	assert.Equal(t, 0, one[1].Len())

	none, err := r.List(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNewFromFile_LogsOrphansToLogger(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "100\n300,20230101,5,A\n200,1234567890,KWH\n900\n")

	var buf bytes.Buffer
	r, err := NewFromFile(path, nem12.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, err)

	all, err := r.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Contains(t, buf.String(), "no parent meter read")
	assert.Contains(t, buf.String(), "line=2")
}

func TestNewFromFile_CustomSeparator(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "100\n200|1234567890|KWH\n900\n")

	r, err := NewFromFile(path, nem12.WithSeparator("|"))
	require.NoError(t, err)
	all, err := r.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNewFromFile_RejectsInvalidFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "100\n200,123,KWH\n900\n")

	r, err := NewFromFile(path)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, nem12.ErrNMILength)
}

func TestNewFromFile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewFromFile(filepath.Join(t.TempDir(), "missing.nem12"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRepo_ListHonorsCancellation(t *testing.T) {
	t.Parallel()

	r := New([]*domain.MeterRead{domain.NewMeterRead("1234567890", domain.EnergyUnitKWH)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
