package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/signalsfoundry/datalink-fusion/api/iffv1"
	"github.com/signalsfoundry/datalink-fusion/api/radarv1"
	"github.com/signalsfoundry/datalink-fusion/internal/fusion"
	"github.com/signalsfoundry/datalink-fusion/model"
	"github.com/signalsfoundry/datalink-fusion/timectrl"
)

const (
	SourceRadar = "radar"
	SourceIFF   = "iff"
)

// PlatformFighter is the platform hint recorded for radar targets flagged as
// fighters.
const PlatformFighter = "fighter"

// radarEvent and iffEvent carry the validation rules for each source. NaN
// and infinities fail every range tag as well as "finite".
type radarEvent struct {
	ID           string  `validate:"required"`
	Lat          float64 `validate:"finite,gte=-90,lte=90"`
	Lon          float64 `validate:"finite,gte=-180,lte=180"`
	BaroAltitude float64 `validate:"finite"`
	GeoAltitude  float64 `validate:"finite"`
	Velocity     float64 `validate:"finite,gte=0"`
	Heading      float64 `validate:"finite,gte=0,lte=360"`
}

type iffEvent struct {
	ID  string  `validate:"required"`
	Lat float64 `validate:"finite,gte=-90,lte=90"`
	Lon float64 `validate:"finite,gte=-180,lte=180"`
}

// Store is the subset of the track store the ingestors write to.
type Store interface {
	UpsertRadar(u fusion.RadarUpdate, now time.Time) (model.Track, bool, error)
	UpsertIFF(u fusion.IFFUpdate, now time.Time) (model.Track, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

func malformed(source string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s %s failed %q", ErrMalformedEvent, source, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformedEvent, source, err)
}

// RadarApplier maps radar targets onto UpsertRadar, resolving the altitude
// fallback inside the store.
func RadarApplier(store Store, clock timectrl.Clock) Applier[*radarv1.RadarTarget] {
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	return func(_ context.Context, t *radarv1.RadarTarget) (Outcome, error) {
		if t == nil {
			return OutcomeMalformed, fmt.Errorf("%w: empty radar message", ErrMalformedEvent)
		}
		ev := radarEvent{
			ID:           t.ID,
			Lat:          t.Lat,
			Lon:          t.Lon,
			BaroAltitude: t.BaroAltitude,
			GeoAltitude:  t.GeoAltitude,
			Velocity:     t.Velocity,
			Heading:      t.Heading,
		}
		if err := validate.Struct(ev); err != nil {
			return OutcomeMalformed, malformed(SourceRadar, err)
		}

		u := fusion.RadarUpdate{
			ID:           t.ID,
			Latitude:     t.Lat,
			Longitude:    t.Lon,
			BaroAltitude: t.BaroAltitude,
			GeoAltitude:  t.GeoAltitude,
			Speed:        t.Velocity,
			Heading:      t.Heading,
		}
		if t.IsFighter {
			u.PlatformHint = PlatformFighter
		}
		_, created, err := store.UpsertRadar(u, clock.Now())
		if err != nil {
			return OutcomeFailed, err
		}
		if created {
			return OutcomeCreated, nil
		}
		return OutcomeApplied, nil
	}
}

// IFFApplier maps IFF messages onto UpsertIFF. An IFF message for a track
// radar has not reported yet is uncorrelated, not an error.
func IFFApplier(store Store, clock timectrl.Clock) Applier[*iffv1.IFFStreamResponse] {
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	return func(_ context.Context, msg *iffv1.IFFStreamResponse) (Outcome, error) {
		d := msg.GetData()
		if d == nil {
			return OutcomeMalformed, fmt.Errorf("%w: iff message without data", ErrMalformedEvent)
		}
		if err := validate.Struct(iffEvent{ID: d.ID, Lat: d.Lat, Lon: d.Lon}); err != nil {
			return OutcomeMalformed, malformed(SourceIFF, err)
		}

		_, err := store.UpsertIFF(fusion.IFFUpdate{
			ID:        d.ID,
			Callsign:  d.Callsign,
			Latitude:  d.Lat,
			Longitude: d.Lon,
			Status:    d.Status,
		}, clock.Now())
		switch {
		case errors.Is(err, fusion.ErrTrackNotFound):
			return OutcomeUncorrelated, fmt.Errorf("%w: track %s", ErrUncorrelated, d.ID)
		case err != nil:
			return OutcomeFailed, err
		}
		return OutcomeApplied, nil
	}
}
