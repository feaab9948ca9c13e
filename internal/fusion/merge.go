package fusion

import (
	"time"

	"github.com/signalsfoundry/datalink-fusion/model"
)

// The apply* helpers are pure: they never modify prev and always return a
// freshly allocated record, so a published *model.Track can be shared with
// readers without further locking.

// RadarUpdate carries one radar observation in store terms.
type RadarUpdate struct {
	ID           string
	Latitude     float64
	Longitude    float64
	BaroAltitude float64
	GeoAltitude  float64
	Speed        float64
	Heading      float64
	PlatformHint string
}

// IFFUpdate carries one IFF observation in store terms. Status is the raw
// producer string; it is classified inside the merge.
type IFFUpdate struct {
	ID        string
	Callsign  string
	Latitude  float64
	Longitude float64
	Status    string
}

// applyRadar creates the track when prev is nil. Position, altitude,
// kinematics and platform hint are replaced unconditionally; identification
// is carried over untouched.
func applyRadar(prev *model.Track, u RadarUpdate, now time.Time) *model.Track {
	var next model.Track
	if prev == nil {
		next = model.Track{
			ID:        u.ID,
			CreatedAt: now,
		}
	} else {
		next = *prev
	}

	next.Position = model.Position{
		Latitude:     u.Latitude,
		Longitude:    u.Longitude,
		Altitude:     model.ResolveAltitude(u.BaroAltitude, u.GeoAltitude),
		BaroAltitude: u.BaroAltitude,
		GeoAltitude:  u.GeoAltitude,
	}
	next.Kinematics = model.Kinematics{Speed: u.Speed, Heading: u.Heading}
	next.PlatformHint = u.PlatformHint
	next.UpdatedAt = advance(next.UpdatedAt, now)
	return &next
}

// applyIFF requires an existing track. Callsign and lat/lon always follow the
// IFF report; identification only moves when IFF is allowed to write it.
func applyIFF(prev *model.Track, u IFFUpdate, now time.Time) *model.Track {
	next := *prev
	next.Callsign = u.Callsign
	next.Position.Latitude = u.Latitude
	next.Position.Longitude = u.Longitude

	if !next.IdentificationSource.Outranks(model.IdentificationSourceIFF) {
		next.Identification = model.ClassifyStatus(u.Status)
		next.IdentificationSource = model.IdentificationSourceIFF
	}
	next.UpdatedAt = advance(next.UpdatedAt, now)
	return &next
}

func applyManual(prev *model.Track, ident model.Identification, now time.Time) *model.Track {
	next := *prev
	next.Identification = ident
	next.IdentificationSource = model.IdentificationSourceManual
	next.UpdatedAt = advance(next.UpdatedAt, now)
	return &next
}

// applyRelease drops a manual override back to NONE so the next IFF report
// classifies the track again. It returns prev unchanged when there is no
// override to release.
func applyRelease(prev *model.Track, now time.Time) *model.Track {
	if prev.IdentificationSource != model.IdentificationSourceManual {
		return prev
	}
	next := *prev
	next.Identification = model.IdentificationUnknown
	next.IdentificationSource = model.IdentificationSourceNone
	next.UpdatedAt = advance(next.UpdatedAt, now)
	return &next
}

// advance keeps updated_at monotonically non-decreasing.
func advance(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}
