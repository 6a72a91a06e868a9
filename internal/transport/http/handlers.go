package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/milad/nem12/internal/service"
	grpcserver "github.com/milad/nem12/internal/transport/grpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	upstreamTimeout = 5 * time.Second
	// maxParseBytes keeps uploads under the gRPC server's receive limit.
	maxParseBytes = 4 << 20
)

type Server struct {
	client MeterReadClient
	mux    *http.ServeMux
}

func New(client MeterReadClient) *Server {
	s := &Server{
		client: client,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := newRequestID()

	w.Header().Set("X-Request-Id", reqID)
	rr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if rec := recover(); rec != nil {
			rr.status = http.StatusInternalServerError

			// Best-effort response. If headers/body were already written, we can
			// only log.
			if !rr.wroteHeader {
				if strings.HasPrefix(r.URL.Path, "/api") {
					writeAPIError(rr, http.StatusInternalServerError, "internal_error", "internal error")
				} else {
					http.Error(rr, "internal error", http.StatusInternalServerError)
				}
			}

			log.Printf("panic handling %s %s req_id=%s: %v\n%s",
				r.Method, r.URL.Path, reqID, rec, debug.Stack(),
			)
		}

		dur := time.Since(start)
		observeHTTPRequest(r, rr.status, dur)

		// Keep health checks + metrics endpoint quiet.
		if r.URL.Path != "/healthz" && r.URL.Path != "/metrics" {
			log.Printf("%s %s -> %d (%s) req_id=%s",
				r.Method, r.URL.Path, rr.status, dur.Truncate(time.Millisecond), reqID,
			)
		}
	}()

	s.mux.ServeHTTP(rr, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/meter-reads", s.handleListMeterReads)
	s.mux.HandleFunc("/api/meter-reads/{nmi}/volumes", s.handleListVolumes)
	s.mux.HandleFunc("/api/parse", s.handleParse)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/", s.handleIndex)
}

// handleListMeterReads returns meter reads in file order, optionally for one NMI.
func (s *Server) handleListMeterReads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	q := r.URL.Query()
	pageSize, err := parseOptionalInt(q.Get("page_size"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "invalid page_size")
		return
	}
	if pageSize < 0 {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "page_size must be >= 0")
		return
	}
	if pageSize > service.MaxPageSize {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", fmt.Sprintf("page_size too large (max %d)", service.MaxPageSize))
		return
	}
	pageToken := q.Get("page_token")
	if pageToken != "" && pageSize == 0 {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "page_token requires page_size")
		return
	}

	req := grpcserver.ListMeterReadsRequest{
		NMI:       q.Get("nmi"),
		PageSize:  int32(pageSize),
		PageToken: pageToken,
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()
	grpcStart := time.Now()
	resp, err := s.client.ListMeterReads(ctx, req)
	if !s.observeUpstream(w, "ListMeterReads", err, time.Since(grpcStart)) {
		return
	}
	if resp.MeterReads == nil {
		resp.MeterReads = []grpcserver.MeterRead{}
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

// handleListVolumes returns daily volumes of one NMI filtered by [start, end) if provided.
// Query params `start` and `end` must be YYYY-MM-DD.
func (s *Server) handleListVolumes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if err := validateOptionalDate(start); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "invalid start")
		return
	}
	if err := validateOptionalDate(end); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "invalid end")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()
	grpcStart := time.Now()
	resp, err := s.client.ListVolumes(ctx, grpcserver.ListVolumesRequest{
		NMI:   r.PathValue("nmi"),
		Start: start,
		End:   end,
	})
	if !s.observeUpstream(w, "ListVolumes", err, time.Since(grpcStart)) {
		return
	}
	if resp.Volumes == nil {
		resp.Volumes = []grpcserver.DailyVolume{}
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

// handleParse parses the NEM12 request body without storing it.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxParseBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "unreadable body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()
	grpcStart := time.Now()
	resp, err := s.client.Parse(ctx, body)
	if !s.observeUpstream(w, "Parse", err, time.Since(grpcStart)) {
		return
	}
	if resp.MeterReads == nil {
		resp.MeterReads = []grpcserver.MeterRead{}
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []grpcserver.Diagnostic{}
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

// observeUpstream records the upstream call and writes the API error for a failed one.
// It reports whether the call succeeded.
func (s *Server) observeUpstream(w http.ResponseWriter, method string, err error, dur time.Duration) bool {
	if err == nil {
		observeUpstreamGRPC(method, codes.OK.String(), dur)
		return true
	}

	code := codes.Unknown
	msg := ""
	if st, ok := status.FromError(err); ok {
		code, msg = st.Code(), st.Message()
	}
	observeUpstreamGRPC(method, code.String(), dur)

	switch code {
	case codes.InvalidArgument:
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", msg)
	case codes.NotFound:
		writeAPIError(w, http.StatusNotFound, "not_found", msg)
	case codes.DeadlineExceeded:
		writeAPIError(w, http.StatusGatewayTimeout, "upstream_timeout", "upstream timeout")
	default:
		writeAPIError(w, http.StatusBadGateway, "upstream_error", "upstream error")
	}
	return false
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		// Keep API errors JSON.
		if strings.HasPrefix(r.URL.Path, "/api") {
			writeAPIError(w, http.StatusNotFound, "not_found", "not found")
			return
		}
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(p)
}

func newRequestID() string {
	return uuid.NewString()
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	reqID := w.Header().Get("X-Request-Id")
	_ = writeJSON(w, status, apiErrorJSON{
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func parseOptionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return n, nil
}
