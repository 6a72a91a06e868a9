package grpcserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/milad/nem12/internal/domain"
	"github.com/milad/nem12/internal/nem12"
	"github.com/milad/nem12/internal/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ MeterReadServiceServer = (*Server)(nil)

type Server struct {
	svc *service.MeterReadService
}

func New(svc *service.MeterReadService) *Server {
	return &Server{svc: svc}
}

func (s *Server) ListMeterReads(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListMeterReadsRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	res, err := s.svc.ListMeterReadsPage(ctx, req.NMI, int(req.PageSize), req.PageToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(ListMeterReadsResponse{
		MeterReads:    toWireMeterReads(res.MeterReads),
		NextPageToken: res.NextPageToken,
	})
}

func (s *Server) ListVolumes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListVolumesRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	start, err := parseOptionalDate(req.Start)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid start: %v", err))
	}
	end, err := parseOptionalDate(req.End)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid end: %v", err))
	}

	vols, err := s.svc.ListVolumes(ctx, req.NMI, start, end)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]DailyVolume, 0, len(vols))
	for _, v := range vols {
		out = append(out, toWireDailyVolume(v))
	}
	return encodeResponse(ListVolumesResponse{Volumes: out})
}

func (s *Server) Parse(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	res, err := s.svc.Parse(ctx, bytes.NewReader(in.GetValue()))
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(ParseResponse{
		MeterReads:  toWireMeterReads(res.MeterReads),
		Diagnostics: toWireDiagnostics(res.Diagnostics),
	})
}

func decodeRequest(in *structpb.Struct, v any) error {
	if in == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	if err := fromStruct(in, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidPagination),
		errors.Is(err, nem12.ErrFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func parseOptionalDate(v string) (*domain.Date, error) {
	if v == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
