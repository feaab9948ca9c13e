// Package datalink serves the fused track table: reads, and the operator's
// manual identification commands. Handlers call the store, copy the result
// into wire form and return; no store lock is held across I/O.
package datalink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/datalink-fusion/api/datalinkv1"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/model"
	"github.com/signalsfoundry/datalink-fusion/timectrl"
)

// Store is the subset of the fusion store the service needs.
type Store interface {
	Get(id string) (model.Track, error)
	List() []model.Track
	SetManualIdentification(id string, ident model.Identification, now time.Time) (model.Track, error)
	ReleaseManualIdentification(id string, now time.Time) (model.Track, error)
}

// Service implements datalinkv1.DatalinkServiceServer.
type Service struct {
	datalinkv1.UnimplementedDatalinkServiceServer

	store Store
	clock timectrl.Clock
	log   logging.Logger
}

// NewService wires a Service to the store. A nil clock uses the system clock.
func NewService(store Store, clock timectrl.Clock, log logging.Logger) *Service {
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Service{store: store, clock: clock, log: log}
}

func (s *Service) ensureReady() error {
	if s == nil || s.store == nil {
		return ToStatusError(errors.New("track store is not initialised"))
	}
	return nil
}

func requireTrackID(id string) error {
	if id == "" {
		return ToStatusError(fmt.Errorf("%w: track_id is required", ErrInvalidRequest))
	}
	return nil
}

func (s *Service) GetTrack(ctx context.Context, req *datalinkv1.GetTrackRequest) (*datalinkv1.GetTrackResponse, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ToStatusError(fmt.Errorf("%w: request is required", ErrInvalidRequest))
	}
	if err := requireTrackID(req.TrackID); err != nil {
		return nil, err
	}

	_, span := startStoreSpan(ctx, "Get", req.TrackID)
	tr, err := s.store.Get(req.TrackID)
	span.End()
	if err != nil {
		return nil, trackStatusError(req.TrackID, err)
	}
	return &datalinkv1.GetTrackResponse{Track: TrackToWire(tr)}, nil
}

func (s *Service) ListTracks(ctx context.Context, _ *datalinkv1.ListTracksRequest) (*datalinkv1.ListTracksResponse, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}

	_, span := startStoreSpan(ctx, "List", "")
	tracks := s.store.List()
	span.End()

	resp := &datalinkv1.ListTracksResponse{Tracks: make([]*datalinkv1.DatalinkTrack, 0, len(tracks))}
	for _, tr := range tracks {
		resp.Tracks = append(resp.Tracks, TrackToWire(tr))
	}
	return resp, nil
}

func (s *Service) SetManualIdentification(ctx context.Context, req *datalinkv1.SetManualIdentificationRequest) (*datalinkv1.SetManualIdentificationResponse, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ToStatusError(fmt.Errorf("%w: request is required", ErrInvalidRequest))
	}
	if err := requireTrackID(req.TrackID); err != nil {
		return nil, err
	}
	ident, err := IdentificationFromWire(req.Identification)
	if err != nil {
		return nil, ToStatusError(err)
	}

	_, span := startStoreSpan(ctx, "SetManualIdentification", req.TrackID)
	tr, err := s.store.SetManualIdentification(req.TrackID, ident, s.clock.Now())
	span.End()
	if err != nil {
		return nil, trackStatusError(req.TrackID, err)
	}

	logging.FromContext(ctx, s.log).Info(ctx, "manual identification set",
		logging.String("track_id", tr.ID),
		logging.String("identification", tr.Identification.String()),
	)
	return &datalinkv1.SetManualIdentificationResponse{Track: TrackToWire(tr)}, nil
}

func (s *Service) ClearManualIdentification(ctx context.Context, req *datalinkv1.ClearManualIdentificationRequest) (*datalinkv1.ClearManualIdentificationResponse, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ToStatusError(fmt.Errorf("%w: request is required", ErrInvalidRequest))
	}
	if err := requireTrackID(req.TrackID); err != nil {
		return nil, err
	}

	_, span := startStoreSpan(ctx, "ReleaseManualIdentification", req.TrackID)
	tr, err := s.store.ReleaseManualIdentification(req.TrackID, s.clock.Now())
	span.End()
	if err != nil {
		return nil, trackStatusError(req.TrackID, err)
	}

	logging.FromContext(ctx, s.log).Info(ctx, "manual identification cleared",
		logging.String("track_id", tr.ID),
	)
	return &datalinkv1.ClearManualIdentificationResponse{Track: TrackToWire(tr)}, nil
}
