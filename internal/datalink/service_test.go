package datalink

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/signalsfoundry/datalink-fusion/api/datalinkv1"
	"github.com/signalsfoundry/datalink-fusion/internal/fusion"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/internal/observability"
	"github.com/signalsfoundry/datalink-fusion/timectrl"
)

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type serviceEnv struct {
	store   *fusion.Store
	clock   *timectrl.ManualClock
	metrics *observability.Collector
	client  datalinkv1.DatalinkServiceClient
}

// newServiceEnv serves a Service over bufconn with the production
// interceptor chain and returns a client for it.
func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	store := fusion.NewStore(logging.Noop())
	clock := timectrl.NewManualClock(t0)
	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	srv := NewGRPCServer(NewService(store, clock, logging.Noop()), ServerOptions{
		Logger:         logging.Noop(),
		Metrics:        metrics,
		RequestTimeout: 2 * time.Second,
	})
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///datalink",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &serviceEnv{
		store:   store,
		clock:   clock,
		metrics: metrics,
		client:  datalinkv1.NewDatalinkServiceClient(conn),
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGetTrackNotFoundThenUnknownAfterRadar(t *testing.T) {
	env := newServiceEnv(t)
	ctx := testContext(t)

	_, err := env.client.GetTrack(ctx, &datalinkv1.GetTrackRequest{TrackID: "T1"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("GetTrack before radar code = %v, want NotFound", status.Code(err))
	}

	if _, _, err := env.store.UpsertRadar(fusion.RadarUpdate{ID: "T1", Latitude: 10, Longitude: 20, BaroAltitude: 1000}, t0); err != nil {
		t.Fatalf("UpsertRadar: %v", err)
	}
	resp, err := env.client.GetTrack(ctx, &datalinkv1.GetTrackRequest{TrackID: "T1"})
	if err != nil {
		t.Fatalf("GetTrack: %v", err)
	}
	if resp.GetTrack().Identification != datalinkv1.IdentificationUnknown ||
		resp.GetTrack().IdentificationSource != datalinkv1.IdentificationSourceNone {
		t.Fatalf("fresh track identity = %s/%s, want UNKNOWN/NONE",
			resp.GetTrack().Identification, resp.GetTrack().IdentificationSource)
	}

	if got := testutil.ToFloat64(env.metrics.RPCRequests.WithLabelValues("DatalinkService", "GetTrack", "NotFound")); got != 1 {
		t.Fatalf("NotFound requests = %v, want 1", got)
	}
}

func TestRadarIFFScenarioOverGRPC(t *testing.T) {
	env := newServiceEnv(t)
	ctx := testContext(t)

	_, _, _ = env.store.UpsertRadar(fusion.RadarUpdate{ID: "T1", Latitude: 10, Longitude: 20, BaroAltitude: 1000}, t0)
	env.clock.Advance(time.Second)
	if _, err := env.store.UpsertIFF(fusion.IFFUpdate{ID: "T1", Callsign: "AB07", Latitude: 10, Longitude: 20, Status: "friend"}, env.clock.Now()); err != nil {
		t.Fatalf("UpsertIFF: %v", err)
	}

	resp, err := env.client.GetTrack(ctx, &datalinkv1.GetTrackRequest{TrackID: "T1"})
	if err != nil {
		t.Fatalf("GetTrack: %v", err)
	}
	want := &datalinkv1.DatalinkTrack{
		TrackID:              "T1",
		Latitude:             10,
		Longitude:            20,
		AltitudeM:            1000,
		Callsign:             "AB07",
		Identification:       datalinkv1.IdentificationFriend,
		IdentificationSource: datalinkv1.IdentificationSourceIFF,
		CreatedAt:            timestamppb.New(t0),
		UpdatedAt:            timestamppb.New(t0.Add(time.Second)),
	}
	if diff := cmp.Diff(want, resp.GetTrack(), cmp.Comparer(func(a, b *timestamppb.Timestamp) bool {
		return a.AsTime().Equal(b.AsTime())
	})); diff != "" {
		t.Fatalf("track mismatch (-want +got):\n%s", diff)
	}
}

func TestManualIdentificationRoundTripAndClear(t *testing.T) {
	env := newServiceEnv(t)
	ctx := testContext(t)

	_, _, _ = env.store.UpsertRadar(fusion.RadarUpdate{ID: "T1", Latitude: 1, Longitude: 1}, t0)
	_, _ = env.store.UpsertIFF(fusion.IFFUpdate{ID: "T1", Status: "friend"}, t0)

	set, err := env.client.SetManualIdentification(ctx, &datalinkv1.SetManualIdentificationRequest{
		TrackID:        "T1",
		Identification: datalinkv1.IdentificationFoe,
	})
	if err != nil {
		t.Fatalf("SetManualIdentification: %v", err)
	}
	if set.GetTrack().Identification != datalinkv1.IdentificationFoe ||
		set.GetTrack().IdentificationSource != datalinkv1.IdentificationSourceManual {
		t.Fatalf("after set: %s/%s", set.GetTrack().Identification, set.GetTrack().IdentificationSource)
	}

	// IFF can no longer override.
	_, _ = env.store.UpsertIFF(fusion.IFFUpdate{ID: "T1", Status: "friend"}, t0.Add(time.Second))
	got, err := env.client.GetTrack(ctx, &datalinkv1.GetTrackRequest{TrackID: "T1"})
	if err != nil {
		t.Fatalf("GetTrack: %v", err)
	}
	if got.GetTrack().Identification != datalinkv1.IdentificationFoe {
		t.Fatalf("IFF overrode manual identification: %s", got.GetTrack().Identification)
	}

	cleared, err := env.client.ClearManualIdentification(ctx, &datalinkv1.ClearManualIdentificationRequest{TrackID: "T1"})
	if err != nil {
		t.Fatalf("ClearManualIdentification: %v", err)
	}
	if cleared.GetTrack().IdentificationSource != datalinkv1.IdentificationSourceNone {
		t.Fatalf("after clear source = %s, want NONE", cleared.GetTrack().IdentificationSource)
	}

	_, _ = env.store.UpsertIFF(fusion.IFFUpdate{ID: "T1", Status: "neutral"}, t0.Add(2*time.Second))
	got, _ = env.client.GetTrack(ctx, &datalinkv1.GetTrackRequest{TrackID: "T1"})
	if got.GetTrack().Identification != datalinkv1.IdentificationNeutral ||
		got.GetTrack().IdentificationSource != datalinkv1.IdentificationSourceIFF {
		t.Fatalf("IFF after clear: %s/%s", got.GetTrack().Identification, got.GetTrack().IdentificationSource)
	}
}

func TestCommandErrors(t *testing.T) {
	env := newServiceEnv(t)
	ctx := testContext(t)
	_, _, _ = env.store.UpsertRadar(fusion.RadarUpdate{ID: "T1"}, t0)

	for _, tc := range []struct {
		name string
		call func() error
		code codes.Code
	}{
		{"get empty id", func() error {
			_, err := env.client.GetTrack(ctx, &datalinkv1.GetTrackRequest{})
			return err
		}, codes.InvalidArgument},
		{"set unknown track", func() error {
			_, err := env.client.SetManualIdentification(ctx, &datalinkv1.SetManualIdentificationRequest{TrackID: "nope", Identification: datalinkv1.IdentificationFoe})
			return err
		}, codes.NotFound},
		{"set bad identification", func() error {
			_, err := env.client.SetManualIdentification(ctx, &datalinkv1.SetManualIdentificationRequest{TrackID: "T1", Identification: datalinkv1.Identification(42)})
			return err
		}, codes.InvalidArgument},
		{"set empty id", func() error {
			_, err := env.client.SetManualIdentification(ctx, &datalinkv1.SetManualIdentificationRequest{Identification: datalinkv1.IdentificationFoe})
			return err
		}, codes.InvalidArgument},
		{"clear unknown track", func() error {
			_, err := env.client.ClearManualIdentification(ctx, &datalinkv1.ClearManualIdentificationRequest{TrackID: "nope"})
			return err
		}, codes.NotFound},
	} {
		if got := status.Code(tc.call()); got != tc.code {
			t.Fatalf("%s: code = %v, want %v", tc.name, got, tc.code)
		}
	}

	if _, err := env.store.Get("nope"); err == nil {
		t.Fatalf("a command created a track")
	}
}

func TestListTracksSortedByID(t *testing.T) {
	env := newServiceEnv(t)
	ctx := testContext(t)

	resp, err := env.client.ListTracks(ctx, &datalinkv1.ListTracksRequest{})
	if err != nil {
		t.Fatalf("ListTracks on empty store: %v", err)
	}
	if len(resp.Tracks) != 0 {
		t.Fatalf("empty store listed %d tracks", len(resp.Tracks))
	}

	for _, id := range []string{"C", "A", "B"} {
		_, _, _ = env.store.UpsertRadar(fusion.RadarUpdate{ID: id}, t0)
	}
	resp, err = env.client.ListTracks(ctx, &datalinkv1.ListTracksRequest{})
	if err != nil {
		t.Fatalf("ListTracks: %v", err)
	}
	var ids []string
	for _, tr := range resp.Tracks {
		ids = append(ids, tr.TrackID)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestServiceWithoutStoreIsInternal(t *testing.T) {
	t.Parallel()
	svc := &Service{}
	_, err := svc.ListTracks(context.Background(), &datalinkv1.ListTracksRequest{})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want Internal", status.Code(err))
	}
}
