package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milad/nem12/internal/config"
	grpcserver "github.com/milad/nem12/internal/transport/grpc"
	httpserver "github.com/milad/nem12/internal/transport/http"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// maxCallRecvMsgSize bounds parse responses, which grow with the uploaded file.
const maxCallRecvMsgSize = 32 << 20

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "optional YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	grpcTarget := flag.String("grpc", "", "gRPC target host:port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *grpcTarget != "" {
		cfg.GRPCTarget = *grpcTarget
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(cfg.GRPCTarget,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxCallRecvMsgSize)),
	)
	if err != nil {
		log.Fatalf("dial gRPC %q: %v", cfg.GRPCTarget, err)
	}
	defer conn.Close()

	// Reduce docker-compose race: wait a bit for gRPC to be ready.
	waitForGRPC(ctx, conn, cfg.GRPCWaitTimeout)

	srv := httpserver.New(grpcserver.NewClient(conn))

	h := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("listen %q: %v", cfg.HTTPAddr, err)
	}
	log.Printf("HTTP listening on %s (gRPC target %s)", cfg.HTTPAddr, cfg.GRPCTarget)

	go func() {
		<-ctx.Done()
		log.Printf("shutting down HTTP")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()

	if err := h.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatalf("serve: %v", err)
	}
}

func waitForGRPC(ctx context.Context, conn *grpc.ClientConn, maxWait time.Duration) {
	if maxWait <= 0 {
		return
	}

	hc := healthpb.NewHealthClient(conn)
	deadline := time.Now().Add(maxWait)

	backoff := 100 * time.Millisecond
	for {
		if ctx.Err() != nil {
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		_, err := hc.Check(reqCtx, &healthpb.HealthCheckRequest{})
		cancel()
		if err == nil {
			log.Printf("gRPC is ready")
			return
		}

		if time.Now().After(deadline) {
			log.Printf("warning: gRPC not ready after %s; continuing anyway (%v)", maxWait, err)
			return
		}

		time.Sleep(backoff)
		if backoff < 1*time.Second {
			backoff = min(backoff*2, 1*time.Second)
		}
	}
}
