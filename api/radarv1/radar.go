// Package radarv1 is the contract of the upstream radar feed: a
// server-streaming RPC that pushes RadarTarget observations. Field numbers
// follow radar.proto.
package radarv1

import (
	"github.com/signalsfoundry/datalink-fusion/api/pbcodec"
)

// StreamRequest opens a radar stream.
type StreamRequest struct {
	RefreshIntervalMs int32 // 1
}

// RadarTarget is one positional observation.
type RadarTarget struct {
	ID           string  // 1
	Lat          float64 // 2
	Lon          float64 // 3
	BaroAltitude float64 // 4
	GeoAltitude  float64 // 5
	Velocity     float64 // 6
	Heading      float64 // 7
	IsFighter    bool    // 8
}

var (
	_ pbcodec.Message = (*StreamRequest)(nil)
	_ pbcodec.Message = (*RadarTarget)(nil)
)

func (m *StreamRequest) Reset() { *m = StreamRequest{} }

func (m *StreamRequest) MarshalProto() ([]byte, error) {
	var e pbcodec.Encoder
	e.Int32(1, m.RefreshIntervalMs)
	return e.Bytes()
}

func (m *StreamRequest) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			m.RefreshIntervalMs = d.ReadInt32()
		default:
			d.Skip()
		}
	}
	return d.Err()
}

func (m *RadarTarget) Reset() { *m = RadarTarget{} }

func (m *RadarTarget) MarshalProto() ([]byte, error) {
	var e pbcodec.Encoder
	e.String(1, m.ID)
	e.Double(2, m.Lat)
	e.Double(3, m.Lon)
	e.Double(4, m.BaroAltitude)
	e.Double(5, m.GeoAltitude)
	e.Double(6, m.Velocity)
	e.Double(7, m.Heading)
	e.Bool(8, m.IsFighter)
	return e.Bytes()
}

func (m *RadarTarget) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			m.ID = d.ReadString()
		case 2:
			m.Lat = d.ReadDouble()
		case 3:
			m.Lon = d.ReadDouble()
		case 4:
			m.BaroAltitude = d.ReadDouble()
		case 5:
			m.GeoAltitude = d.ReadDouble()
		case 6:
			m.Velocity = d.ReadDouble()
		case 7:
			m.Heading = d.ReadDouble()
		case 8:
			m.IsFighter = d.ReadBool()
		default:
			d.Skip()
		}
	}
	return d.Err()
}
