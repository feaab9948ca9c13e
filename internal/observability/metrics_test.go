package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/datalink-fusion/internal/ingest"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/datalink.DatalinkService/GetTrack"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req any) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("DatalinkService", "GetTrack", "OK")); got != 1 {
		t.Fatalf("datalink_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "datalink_request_duration_seconds", map[string]string{
		"service": "DatalinkService",
		"method":  "GetTrack",
	}); count != 1 {
		t.Fatalf("datalink_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/datalink.DatalinkService/SetManualIdentification"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "track not found")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("DatalinkService", "SetManualIdentification", "NotFound")); got != 1 {
		t.Fatalf("datalink_requests_total error label = %v, want 1", got)
	}
}

func TestRecorderMethodsDriveMetrics(t *testing.T) {
	collector, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.SetTrackCount(7)
	collector.AddEvictions(2)
	collector.AddEvictions(0)
	collector.ObserveEvent("radar", ingest.OutcomeCreated)
	collector.ObserveEvent("radar", ingest.OutcomeCreated)
	collector.ObserveEvent("iff", ingest.OutcomeUncorrelated)
	collector.ObserveReconnect("iff")
	collector.ObserveMirrorWrite("dropped")

	for _, tc := range []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"tracks", collector.Tracks, 7},
		{"evictions", collector.Evictions, 2},
		{"radar created", collector.IngestEvents.WithLabelValues("radar", "created"), 2},
		{"iff uncorrelated", collector.IngestEvents.WithLabelValues("iff", "uncorrelated"), 1},
		{"iff reconnects", collector.IngestReconnects.WithLabelValues("iff"), 1},
		{"mirror dropped", collector.MirrorWrites.WithLabelValues("dropped"), 1},
	} {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Fatalf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.SetTrackCount(1)
	c.AddEvictions(1)
	c.ObserveEvent("radar", ingest.OutcomeApplied)
	c.ObserveReconnect("radar")
	c.ObserveMirrorWrite("written")
}

func TestNewCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	first.SetTrackCount(3)
	if got := testutil.ToFloat64(second.Tracks); got != 3 {
		t.Fatalf("second collector sees tracks = %v, want 3", got)
	}
}

func TestMetricsHandlerExposesFusionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	collector.SetTrackCount(42)
	collector.ObserveEvent("radar", ingest.OutcomeApplied)
	collector.ObserveReconnect("radar")
	collector.ObserveMirrorWrite("written")
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	collector.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"datalink_requests_total",
		"datalink_request_duration_seconds",
		"datalink_tracks 42",
		"datalink_ingest_events_total",
		"datalink_ingest_reconnects_total",
		"datalink_mirror_writes_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	for _, tc := range []struct {
		in, service, method string
	}{
		{"/datalink.DatalinkService/ListTracks", "DatalinkService", "ListTracks"},
		{"Svc/Method", "Svc", "Method"},
		{"", "unknown", "unknown"},
		{"/only", "unknown", "unknown"},
	} {
		service, method := SplitMethod(tc.in)
		if service != tc.service || method != tc.method {
			t.Fatalf("SplitMethod(%q) = (%q, %q), want (%q, %q)", tc.in, service, method, tc.service, tc.method)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
