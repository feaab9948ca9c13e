// Package datalinkv1 is the query/command contract of the fused track
// service. Field and enum numbers follow datalink.proto.
package datalinkv1

import (
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/signalsfoundry/datalink-fusion/api/pbcodec"
)

// Identification is a track's affiliation.
type Identification int32

const (
	IdentificationUnknown Identification = 0
	IdentificationFriend  Identification = 1
	IdentificationFoe     Identification = 2
	IdentificationNeutral Identification = 3
)

var (
	Identification_name = map[int32]string{
		0: "IDENTIFICATION_UNKNOWN",
		1: "IDENTIFICATION_FRIEND",
		2: "IDENTIFICATION_FOE",
		3: "IDENTIFICATION_NEUTRAL",
	}
	Identification_value = map[string]int32{
		"IDENTIFICATION_UNKNOWN": 0,
		"IDENTIFICATION_FRIEND":  1,
		"IDENTIFICATION_FOE":     2,
		"IDENTIFICATION_NEUTRAL": 3,
	}
)

func (x Identification) String() string {
	if n, ok := Identification_name[int32(x)]; ok {
		return n
	}
	return strconv.Itoa(int(x))
}

// ParseIdentification accepts the enum name with or without its
// IDENTIFICATION_ prefix, in any case ("foe", "IDENTIFICATION_FOE").
func ParseIdentification(s string) (Identification, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "IDENTIFICATION_") {
		name = "IDENTIFICATION_" + name
	}
	v, ok := Identification_value[name]
	return Identification(v), ok
}

// IdentificationSource records why a track holds its identification.
type IdentificationSource int32

const (
	IdentificationSourceNone   IdentificationSource = 0
	IdentificationSourceIFF    IdentificationSource = 1
	IdentificationSourceManual IdentificationSource = 2
)

var (
	IdentificationSource_name = map[int32]string{
		0: "IDENT_SRC_NONE",
		1: "IDENT_SRC_IFF",
		2: "IDENT_SRC_MANUAL",
	}
	IdentificationSource_value = map[string]int32{
		"IDENT_SRC_NONE":   0,
		"IDENT_SRC_IFF":    1,
		"IDENT_SRC_MANUAL": 2,
	}
)

func (x IdentificationSource) String() string {
	if n, ok := IdentificationSource_name[int32(x)]; ok {
		return n
	}
	return strconv.Itoa(int(x))
}

// DatalinkTrack is the fused track as served to clients.
type DatalinkTrack struct {
	TrackID              string                 // 1
	Latitude             float64                // 2
	Longitude            float64                // 3
	AltitudeM            float64                // 4
	Speed                float64                // 5
	Heading              float64                // 6
	Platform             string                 // 7
	Callsign             string                 // 8
	Identification       Identification         // 9
	IdentificationSource IdentificationSource   // 10
	UpdatedAt            *timestamppb.Timestamp // 11
	CreatedAt            *timestamppb.Timestamp // 12
}

type GetTrackRequest struct {
	TrackID string // 1
}

type GetTrackResponse struct {
	Track *DatalinkTrack // 1
}

type ListTracksRequest struct{}

type ListTracksResponse struct {
	Tracks []*DatalinkTrack // 1
}

type SetManualIdentificationRequest struct {
	TrackID        string         // 1
	Identification Identification // 2
}

type SetManualIdentificationResponse struct {
	Track *DatalinkTrack // 1
}

type ClearManualIdentificationRequest struct {
	TrackID string // 1
}

type ClearManualIdentificationResponse struct {
	Track *DatalinkTrack // 1
}

// GetTrack returns the response track, tolerating nil receivers.
func (r *GetTrackResponse) GetTrack() *DatalinkTrack {
	if r == nil {
		return nil
	}
	return r.Track
}

// GetTrack returns the response track, tolerating nil receivers.
func (r *SetManualIdentificationResponse) GetTrack() *DatalinkTrack {
	if r == nil {
		return nil
	}
	return r.Track
}

// GetTrack returns the response track, tolerating nil receivers.
func (r *ClearManualIdentificationResponse) GetTrack() *DatalinkTrack {
	if r == nil {
		return nil
	}
	return r.Track
}

var (
	_ pbcodec.Message = (*DatalinkTrack)(nil)
	_ pbcodec.Message = (*GetTrackRequest)(nil)
	_ pbcodec.Message = (*GetTrackResponse)(nil)
	_ pbcodec.Message = (*ListTracksRequest)(nil)
	_ pbcodec.Message = (*ListTracksResponse)(nil)
	_ pbcodec.Message = (*SetManualIdentificationRequest)(nil)
	_ pbcodec.Message = (*SetManualIdentificationResponse)(nil)
	_ pbcodec.Message = (*ClearManualIdentificationRequest)(nil)
	_ pbcodec.Message = (*ClearManualIdentificationResponse)(nil)
)
