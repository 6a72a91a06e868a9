package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/milad/nem12/internal/domain"
	"github.com/milad/nem12/internal/nem12"
	"github.com/milad/nem12/internal/repo"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidPagination = errors.New("invalid pagination")
	ErrNotFound          = errors.New("not found")
)

const (
	MaxPageSize = 5_000
)

type ListMeterReadsPageResult struct {
	MeterReads    []*domain.MeterRead
	NextPageToken string
}

// DailyVolume is one day of a meter read, flattened for range queries.
type DailyVolume struct {
	NMI        string
	EnergyUnit domain.EnergyUnit
	Date       domain.Date
	Volume     domain.MeterVolume
}

// ParseResult is the outcome of parsing an uploaded file.
type ParseResult struct {
	MeterReads  []*domain.MeterRead
	Diagnostics []nem12.Diagnostic
}

type MeterReadService struct {
	repo       repo.MeterReadRepository
	parserOpts []nem12.Option
	logger     *slog.Logger
}

func NewMeterReadService(r repo.MeterReadRepository, logger *slog.Logger, parserOpts ...nem12.Option) *MeterReadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeterReadService{repo: r, parserOpts: parserOpts, logger: logger}
}

func (s *MeterReadService) ListMeterReads(ctx context.Context, nmi string) ([]*domain.MeterRead, error) {
	res, err := s.ListMeterReadsPage(ctx, nmi, 0, "")
	return res.MeterReads, err
}

func (s *MeterReadService) ListMeterReadsPage(ctx context.Context, nmi string, pageSize int, pageToken string) (ListMeterReadsPageResult, error) {
	offset, err := parseOffsetToken(pageSize, pageToken)
	if err != nil {
		return ListMeterReadsPageResult{}, err
	}
	if pageSize < 0 {
		return ListMeterReadsPageResult{}, fmt.Errorf("%w: page_size must be >= 0", ErrInvalidPagination)
	}
	if pageSize > MaxPageSize {
		return ListMeterReadsPageResult{}, fmt.Errorf("%w: page_size too large (max %d)", ErrInvalidPagination, MaxPageSize)
	}

	reads, err := s.repo.List(ctx, nmi)
	if err != nil {
		return ListMeterReadsPageResult{}, err
	}
	if offset > len(reads) {
		return ListMeterReadsPageResult{}, fmt.Errorf("%w: page_token out of range", ErrInvalidPagination)
	}

	if pageSize == 0 {
		return ListMeterReadsPageResult{MeterReads: reads}, nil
	}
	if offset == len(reads) {
		return ListMeterReadsPageResult{}, nil
	}

	end := min(offset+pageSize, len(reads))
	next := ""
	if end < len(reads) {
		next = strconv.Itoa(end)
	}
	return ListMeterReadsPageResult{
		MeterReads:    reads[offset:end],
		NextPageToken: next,
	}, nil
}

// ListVolumes returns the daily volumes of nmi within [startInclusive, endExclusive),
// ascending by date. Reads that share the NMI are merged in file order.
func (s *MeterReadService) ListVolumes(ctx context.Context, nmi string, startInclusive, endExclusive *domain.Date) ([]DailyVolume, error) {
	if nmi == "" {
		return nil, fmt.Errorf("%w: nmi is required", ErrInvalidArgument)
	}
	if startInclusive != nil && endExclusive != nil && !startInclusive.Before(*endExclusive) {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidDateRange)
	}

	reads, err := s.repo.List(ctx, nmi)
	if err != nil {
		return nil, err
	}
	if len(reads) == 0 {
		return nil, fmt.Errorf("%w: nmi %q", ErrNotFound, nmi)
	}

	byDate := make(map[domain.Date]DailyVolume)
	var dates []domain.Date
	for _, mr := range reads {
		for _, d := range mr.Dates() {
			if startInclusive != nil && d.Before(*startInclusive) {
				continue
			}
			if endExclusive != nil && !d.Before(*endExclusive) {
				continue
			}
			if _, seen := byDate[d]; !seen {
				dates = append(dates, d)
			}
			v, _ := mr.Volume(d)
			byDate[d] = DailyVolume{NMI: mr.NMI, EnergyUnit: mr.EnergyUnit, Date: d, Volume: v}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]DailyVolume, 0, len(dates))
	for _, d := range dates {
		out = append(out, byDate[d])
	}
	return out, nil
}

// Parse parses an uploaded NEM12 payload. Nothing is stored.
func (s *MeterReadService) Parse(ctx context.Context, r io.Reader) (ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return ParseResult{}, err
	}

	var diags []nem12.Diagnostic
	opts := append(append([]nem12.Option(nil), s.parserOpts...),
		nem12.WithDiagnosticHandler(func(d nem12.Diagnostic) {
			diags = append(diags, d)
			orphanVolumesTotal.Inc()
			s.logger.Warn("nem12 diagnostic", "line", d.Line, "message", d.Message)
		}),
	)

	start := time.Now()
	reads, err := nem12.NewParser(opts...).Parse(ctxReader{ctx: ctx, r: r})
	observeParse(err, len(reads), time.Since(start))
	if err != nil {
		return ParseResult{}, err
	}
	return ParseResult{MeterReads: reads, Diagnostics: diags}, nil
}

// ctxReader stops a parse at the next read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

func parseOffsetToken(pageSize int, pageToken string) (int, error) {
	if pageToken == "" {
		return 0, nil
	}
	if pageSize <= 0 {
		return 0, fmt.Errorf("%w: page_token requires page_size", ErrInvalidPagination)
	}
	n, err := strconv.Atoi(pageToken)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid page_token", ErrInvalidPagination)
	}
	return n, nil
}
