package model

import (
	"strings"
	"time"
)

// Identification is the affiliation assigned to a track.
type Identification int

const (
	IdentificationUnknown Identification = iota
	IdentificationFriend
	IdentificationFoe
	IdentificationNeutral
)

var identificationNames = map[Identification]string{
	IdentificationUnknown: "UNKNOWN",
	IdentificationFriend:  "FRIEND",
	IdentificationFoe:     "FOE",
	IdentificationNeutral: "NEUTRAL",
}

func (i Identification) String() string {
	if name, ok := identificationNames[i]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether i is one of the defined identification values.
func (i Identification) Valid() bool {
	_, ok := identificationNames[i]
	return ok
}

// ParseIdentification maps an enum name (case-insensitive) back onto an
// Identification. The IDENTIFICATION_ prefix used on the wire is accepted.
func ParseIdentification(s string) (Identification, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "IDENTIFICATION_")
	for id, n := range identificationNames {
		if n == name {
			return id, true
		}
	}
	return IdentificationUnknown, false
}

// IdentificationSource records why a track holds its current identification.
// Radar never supplies identity, so there is no radar source.
//
// The numeric order is the precedence order: a lower source may never replace
// a classification set by a higher one.
type IdentificationSource int

const (
	IdentificationSourceNone IdentificationSource = iota
	IdentificationSourceIFF
	IdentificationSourceManual
)

func (s IdentificationSource) String() string {
	switch s {
	case IdentificationSourceIFF:
		return "IFF"
	case IdentificationSourceManual:
		return "MANUAL"
	default:
		return "NONE"
	}
}

// Outranks reports whether s has strictly higher precedence than other.
func (s IdentificationSource) Outranks(other IdentificationSource) bool {
	return s > other
}

// Position is a geodetic position. Altitude is the fused value reported to
// consumers; the raw radar altitudes are kept alongside it.
type Position struct {
	Latitude     float64 // degrees
	Longitude    float64 // degrees
	Altitude     float64 // metres
	BaroAltitude float64 // metres, raw radar report
	GeoAltitude  float64 // metres, raw radar report
}

// Kinematics is radar-sourced motion.
type Kinematics struct {
	Speed   float64
	Heading float64 // degrees
}

// Track is the fused record for one physical contact. Values stored in the
// fusion store are never mutated after publication; callers receive copies.
type Track struct {
	ID                   string
	Position             Position
	Kinematics           Kinematics
	Callsign             string
	PlatformHint         string // e.g. "fighter"
	Identification       Identification
	IdentificationSource IdentificationSource
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ResolveAltitude returns the barometric altitude when it is non-zero and the
// geometric altitude otherwise.
func ResolveAltitude(baro, geo float64) float64 {
	if baro != 0 {
		return baro
	}
	return geo
}

// ClassifyStatus maps a raw IFF status string onto an Identification.
// Matching is case-insensitive but otherwise exact, so padded values such as
// " friend " are UNKNOWN like anything else unrecognised (including "").
func ClassifyStatus(raw string) Identification {
	switch strings.ToLower(raw) {
	case "friend", "friendly":
		return IdentificationFriend
	case "foe", "hostile", "enemy":
		return IdentificationFoe
	case "neutral":
		return IdentificationNeutral
	default:
		return IdentificationUnknown
	}
}
