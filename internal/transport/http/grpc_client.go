package httpserver

import (
	"context"

	"github.com/milad/nem12/internal/domain"
	grpcserver "github.com/milad/nem12/internal/transport/grpc"
	"google.golang.org/grpc"
)

var _ MeterReadClient = (*grpcserver.Client)(nil)

// MeterReadClient is the small subset of the gRPC client we need, to keep tests simple.
type MeterReadClient interface {
	ListMeterReads(ctx context.Context, in grpcserver.ListMeterReadsRequest, opts ...grpc.CallOption) (*grpcserver.ListMeterReadsResponse, error)
	ListVolumes(ctx context.Context, in grpcserver.ListVolumesRequest, opts ...grpc.CallOption) (*grpcserver.ListVolumesResponse, error)
	Parse(ctx context.Context, payload []byte, opts ...grpc.CallOption) (*grpcserver.ParseResponse, error)
}

func validateOptionalDate(v string) error {
	if v == "" {
		return nil
	}
	_, err := domain.ParseDate(v)
	return err
}
