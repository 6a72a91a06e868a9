package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milad/nem12/internal/config"
	"github.com/milad/nem12/internal/nem12"
	"github.com/milad/nem12/internal/repo/nem12repo"
	"github.com/milad/nem12/internal/service"
	grpcserver "github.com/milad/nem12/internal/transport/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// maxRecvMsgSize leaves room for the HTTP gateway's 4 MiB upload limit plus framing.
const maxRecvMsgSize = 8 << 20

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "optional YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	nem12Path := flag.String("nem12", "", "path to the NEM12 file to serve (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.GRPCAddr = *addr
	}
	if *nem12Path != "" {
		cfg.NEM12Path = *nem12Path
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// A malformed file aborts startup: partial data is never served.
	repo, err := nem12repo.NewFromFile(cfg.NEM12Path, append(cfg.ParserOptions(), nem12.WithLogger(logger))...)
	if err != nil {
		log.Fatalf("load nem12: %v", err)
	}

	svc := service.NewMeterReadService(repo, logger, cfg.ParserOptions()...)
	api := grpcserver.New(svc)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %q: %v", cfg.GRPCAddr, err)
	}
	log.Printf("gRPC listening on %s (nem12 %s)", cfg.GRPCAddr, cfg.NEM12Path)

	g := grpc.NewServer(grpc.MaxRecvMsgSize(maxRecvMsgSize))
	grpcserver.RegisterMeterReadServiceServer(g, api)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(g, hs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Printf("shutting down gRPC")
		ch := make(chan struct{})
		go func() {
			g.GracefulStop()
			close(ch)
		}()
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			g.Stop()
		}
	}()

	if err := g.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
