package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/milad/nem12/internal/domain"
	"github.com/milad/nem12/internal/repo/nem12repo"
	"github.com/milad/nem12/internal/service"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newTestClient(t *testing.T, reads ...*domain.MeterRead) *Client {
	t.Helper()

	svc := service.NewMeterReadService(nem12repo.New(reads), nil)
	srv := New(svc)

	const bufSize = 1024 * 1024
	lis := bufconn.Listen(bufSize)

	g := grpc.NewServer()
	RegisterMeterReadServiceServer(g, srv)
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn)
}

func meterRead(nmi string, volumes map[int]string) *domain.MeterRead {
	mr := domain.NewMeterRead(nmi, domain.EnergyUnitKWH)
	for day, v := range volumes {
		d := domain.Date{Year: 2023, Month: time.January, Day: day}
		mr.AppendVolume(d, domain.NewMeterVolume(decimal.RequireFromString(v), domain.QualityActual))
	}
	return mr
}

func TestServer_ListMeterReads_PreservesOrder(t *testing.T) {
	t.Parallel()

	client := newTestClient(t,
		meterRead("2222222222", map[int]string{2: "2.5", 1: "1.125"}),
		meterRead("1111111111", nil),
		meterRead("3333333333", nil),
	)

	resp, err := client.ListMeterReads(context.Background(), ListMeterReadsRequest{})
	if err != nil {
		t.Fatalf("ListMeterReads: %v", err)
	}
	if got, want := len(resp.MeterReads), 3; got != want {
		t.Fatalf("len(meterReads)=%d want %d", got, want)
	}
	if got, want := resp.MeterReads[0].NMI, "2222222222"; got != want {
		t.Fatalf("meterReads[0].NMI=%q want %q", got, want)
	}
	first := resp.MeterReads[0]
	if got, want := first.TotalVolume, "3.62"; got != want {
		t.Fatalf("totalVolume=%q want %q", got, want)
	}
	if len(first.Volumes) != 2 || first.Volumes[0].Date != "2023-01-01" || first.Volumes[0].Volume != "1.12" {
		t.Fatalf("unexpected volumes: %#v", first.Volumes)
	}
}

func TestServer_ListMeterReads_Paginates(t *testing.T) {
	t.Parallel()

	client := newTestClient(t,
		meterRead("1111111111", nil),
		meterRead("2222222222", nil),
		meterRead("3333333333", nil),
	)

	resp, err := client.ListMeterReads(context.Background(), ListMeterReadsRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("ListMeterReads: %v", err)
	}
	if got, want := resp.NextPageToken, "2"; got != want {
		t.Fatalf("nextPageToken=%q want %q", got, want)
	}

	_, err = client.ListMeterReads(context.Background(), ListMeterReadsRequest{PageToken: "2"})
	if got, want := status.Code(err), codes.InvalidArgument; got != want {
		t.Fatalf("code=%v want %v", got, want)
	}
}

func TestServer_ListVolumes_FiltersRange(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, meterRead("1111111111", map[int]string{1: "1", 2: "2", 3: "3"}))

	resp, err := client.ListVolumes(context.Background(), ListVolumesRequest{
		NMI:   "1111111111",
		Start: "2023-01-02",
		End:   "2023-01-03",
	})
	if err != nil {
		t.Fatalf("ListVolumes: %v", err)
	}
	if got, want := len(resp.Volumes), 1; got != want {
		t.Fatalf("len(volumes)=%d want %d", got, want)
	}
	if got, want := resp.Volumes[0].Volume.Volume, "2.00"; got != want {
		t.Fatalf("volume=%q want %q", got, want)
	}
}

func TestServer_ListVolumes_Errors(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, meterRead("1111111111", nil))
	ctx := context.Background()

	for _, tc := range []struct {
		req  ListVolumesRequest
		code codes.Code
	}{
		{ListVolumesRequest{}, codes.InvalidArgument},
		{ListVolumesRequest{NMI: "1111111111", Start: "20230101"}, codes.InvalidArgument},
		{ListVolumesRequest{NMI: "1111111111", Start: "2023-01-02", End: "2023-01-01"}, codes.InvalidArgument},
		{ListVolumesRequest{NMI: "9999999999"}, codes.NotFound},
	} {
		_, err := client.ListVolumes(ctx, tc.req)
		if got := status.Code(err); got != tc.code {
			t.Fatalf("req=%+v code=%v want %v", tc.req, got, tc.code)
		}
	}
}

func TestServer_Parse(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	resp, err := client.Parse(context.Background(), []byte("100\n300,20230101,5,A\n200,1234567890,KWH\n300,20230101,15.5,A\n900\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := len(resp.MeterReads), 1; got != want {
		t.Fatalf("len(meterReads)=%d want %d", got, want)
	}
	if got, want := resp.MeterReads[0].Volumes[0].Volume, "15.50"; got != want {
		t.Fatalf("volume=%q want %q", got, want)
	}
	if len(resp.Diagnostics) != 1 || resp.Diagnostics[0].Line != 2 {
		t.Fatalf("unexpected diagnostics: %#v", resp.Diagnostics)
	}

	_, err = client.Parse(context.Background(), []byte("100\n200,123,KWH\n900\n"))
	if got, want := status.Code(err), codes.InvalidArgument; got != want {
		t.Fatalf("code=%v want %v", got, want)
	}
}
