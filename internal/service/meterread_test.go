package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/milad/nem12/internal/domain"
	"github.com/milad/nem12/internal/nem12"
	"github.com/milad/nem12/internal/repo/nem12repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jan(d int) domain.Date { return domain.Date{Year: 2023, Month: time.January, Day: d} }

func meterRead(nmi string, days map[int]string) *domain.MeterRead {
	mr := domain.NewMeterRead(nmi, domain.EnergyUnitKWH)
	for d, v := range days {
		mr.AppendVolume(jan(d), domain.NewMeterVolume(decimal.RequireFromString(v), domain.QualityActual))
	}
	return mr
}

func newService(reads ...*domain.MeterRead) *MeterReadService {
	return NewMeterReadService(nem12repo.New(reads), nil)
}

func TestMeterReadService_ListMeterReadsPage(t *testing.T) {
	t.Parallel()

	svc := newService(
		meterRead("1111111111", nil),
		meterRead("2222222222", nil),
		meterRead("3333333333", nil),
	)
	ctx := context.Background()

	all, err := svc.ListMeterReads(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := svc.ListMeterReadsPage(ctx, "", 2, "")
	require.NoError(t, err)
	require.Len(t, page.MeterReads, 2)
	assert.Equal(t, "2", page.NextPageToken)

	page, err = svc.ListMeterReadsPage(ctx, "", 2, page.NextPageToken)
	require.NoError(t, err)
	require.Len(t, page.MeterReads, 1)
	assert.Equal(t, "3333333333", page.MeterReads[0].NMI)
	assert.Empty(t, page.NextPageToken)

	page, err = svc.ListMeterReadsPage(ctx, "", 2, "3")
	require.NoError(t, err)
	assert.Empty(t, page.MeterReads)
}

func TestMeterReadService_RejectsInvalidPagination(t *testing.T) {
	t.Parallel()

	svc := newService(meterRead("1111111111", nil))
	ctx := context.Background()

	for _, tc := range []struct {
		size  int
		token string
	}{
		{-1, ""},
		{MaxPageSize + 1, ""},
		{0, "1"},
		{1, "abc"},
		{1, "-2"},
		{1, "5"},
	} {
		_, err := svc.ListMeterReadsPage(ctx, "", tc.size, tc.token)
		assert.ErrorIs(t, err, ErrInvalidPagination, "size=%d token=%q", tc.size, tc.token)
	}
}

func TestMeterReadService_ListVolumes(t *testing.T) {
	t.Parallel()

	svc := newService(
		meterRead("1111111111", map[int]string{3: "3", 1: "1", 2: "2"}),
		meterRead("2222222222", map[int]string{1: "9"}),
		meterRead("1111111111", map[int]string{4: "4", 2: "20"}),
	)
	ctx := context.Background()

	vols, err := svc.ListVolumes(ctx, "1111111111", nil, nil)
	require.NoError(t, err)
	require.Len(t, vols, 4)
	var got []string
	for _, v := range vols {
		got = append(got, v.Date.String()+"="+v.Volume.String())
	}
	assert.Equal(t, []string{"2023-01-01=1.00", "2023-01-02=20.00", "2023-01-03=3.00", "2023-01-04=4.00"}, got)

	start, end := jan(2), jan(4)
	vols, err = svc.ListVolumes(ctx, "1111111111", &start, &end)
	require.NoError(t, err)
	require.Len(t, vols, 2)
	assert.Equal(t, jan(2), vols[0].Date)
	assert.Equal(t, jan(3), vols[1].Date)
}

func TestMeterReadService_ListVolumesErrors(t *testing.T) {
	t.Parallel()

	svc := newService(meterRead("1111111111", nil))
	ctx := context.Background()

	_, err := svc.ListVolumes(ctx, "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	d := jan(1)
	_, err = svc.ListVolumes(ctx, "1111111111", &d, &d)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.ListVolumes(ctx, "9999999999", nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMeterReadService_Parse(t *testing.T) {
	t.Parallel()

	svc := NewMeterReadService(nem12repo.New(nil), nil, nem12.WithSeparator(";"))

	res, err := svc.Parse(context.Background(), strings.NewReader("100\n300;20230101;1;A\n200;1234567890;KWH\n300;20230101;2.125;E\n900\n"))
	require.NoError(t, err)
	require.Len(t, res.MeterReads, 1)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, 2, res.Diagnostics[0].Line)

	_, err = svc.Parse(context.Background(), strings.NewReader("100\n200;123;KWH\n900\n"))
	assert.ErrorIs(t, err, nem12.ErrNMILength)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Parse(ctx, strings.NewReader("100\n900\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

// cancelOnRead cancels its context after handing out the first chunk.
type cancelOnRead struct {
	cancel context.CancelFunc
	chunks []string
}

func (r *cancelOnRead) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	r.cancel()
	return n, nil
}

func TestMeterReadService_ParseStopsWhenCancelledMidStream(t *testing.T) {
	t.Parallel()

	svc := NewMeterReadService(nem12repo.New(nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &cancelOnRead{cancel: cancel, chunks: []string{
		"100\n200,1234567890,KWH\n",
		"300,20230101,1,A\n",
		"900\n",
	}}

	_, err := svc.Parse(ctx, r)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, nem12.ErrIO)
	assert.Len(t, r.chunks, 2, "no reads after cancellation")
}

func TestParseResultLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ok", parseResultLabel(nil))
	_, err := nem12.NewParser().Parse(strings.NewReader("900\n"))
	assert.Equal(t, "format_error", parseResultLabel(err))
}
