package datalink

import (
	"fmt"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/signalsfoundry/datalink-fusion/api/datalinkv1"
	"github.com/signalsfoundry/datalink-fusion/model"
)

var identificationToWire = map[model.Identification]datalinkv1.Identification{
	model.IdentificationUnknown: datalinkv1.IdentificationUnknown,
	model.IdentificationFriend:  datalinkv1.IdentificationFriend,
	model.IdentificationFoe:     datalinkv1.IdentificationFoe,
	model.IdentificationNeutral: datalinkv1.IdentificationNeutral,
}

var sourceToWire = map[model.IdentificationSource]datalinkv1.IdentificationSource{
	model.IdentificationSourceNone:   datalinkv1.IdentificationSourceNone,
	model.IdentificationSourceIFF:    datalinkv1.IdentificationSourceIFF,
	model.IdentificationSourceManual: datalinkv1.IdentificationSourceManual,
}

// TrackToWire copies a fused track into its wire form.
func TrackToWire(t model.Track) *datalinkv1.DatalinkTrack {
	out := &datalinkv1.DatalinkTrack{
		TrackID:              t.ID,
		Latitude:             t.Position.Latitude,
		Longitude:            t.Position.Longitude,
		AltitudeM:            t.Position.Altitude,
		Speed:                t.Kinematics.Speed,
		Heading:              t.Kinematics.Heading,
		Platform:             t.PlatformHint,
		Callsign:             t.Callsign,
		Identification:       IdentificationToWire(t.Identification),
		IdentificationSource: sourceToWire[t.IdentificationSource],
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = timestamppb.New(t.CreatedAt)
	}
	if !t.UpdatedAt.IsZero() {
		out.UpdatedAt = timestamppb.New(t.UpdatedAt)
	}
	return out
}

// IdentificationToWire maps an identification to its wire enum.
func IdentificationToWire(id model.Identification) datalinkv1.Identification {
	if w, ok := identificationToWire[id]; ok {
		return w
	}
	return datalinkv1.IdentificationUnknown
}

// IdentificationFromWire maps a wire enum onto an identification. Numbers
// outside the enum are rejected.
func IdentificationFromWire(w datalinkv1.Identification) (model.Identification, error) {
	for id, wire := range identificationToWire {
		if wire == w {
			return id, nil
		}
	}
	return model.IdentificationUnknown, fmt.Errorf("%w: identification %d", ErrInvalidRequest, int32(w))
}
