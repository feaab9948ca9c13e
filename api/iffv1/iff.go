// Package iffv1 is the contract of the upstream IFF feed. Each stream message
// wraps one identity observation. Field numbers follow iff.proto.
package iffv1

import (
	"github.com/signalsfoundry/datalink-fusion/api/pbcodec"
)

// IFFRequest opens an IFF stream. A zero RadiusKm asks for every contact.
type IFFRequest struct {
	Lat      float64 // 1
	Lon      float64 // 2
	RadiusKm float64 // 3
}

// IFFData is one identity observation.
type IFFData struct {
	ID       string  // 1
	Callsign string  // 2
	Lat      float64 // 3
	Lon      float64 // 4
	Status   string  // 5
}

// IFFStreamResponse is the stream envelope.
type IFFStreamResponse struct {
	Data *IFFData // 1
}

// GetData returns the payload, tolerating nil receivers.
func (r *IFFStreamResponse) GetData() *IFFData {
	if r == nil {
		return nil
	}
	return r.Data
}

var (
	_ pbcodec.Message = (*IFFRequest)(nil)
	_ pbcodec.Message = (*IFFData)(nil)
	_ pbcodec.Message = (*IFFStreamResponse)(nil)
)

func (m *IFFRequest) Reset() { *m = IFFRequest{} }

func (m *IFFRequest) MarshalProto() ([]byte, error) {
	var e pbcodec.Encoder
	e.Double(1, m.Lat)
	e.Double(2, m.Lon)
	e.Double(3, m.RadiusKm)
	return e.Bytes()
}

func (m *IFFRequest) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			m.Lat = d.ReadDouble()
		case 2:
			m.Lon = d.ReadDouble()
		case 3:
			m.RadiusKm = d.ReadDouble()
		default:
			d.Skip()
		}
	}
	return d.Err()
}

func (m *IFFData) Reset() { *m = IFFData{} }

func (m *IFFData) MarshalProto() ([]byte, error) {
	var e pbcodec.Encoder
	e.String(1, m.ID)
	e.String(2, m.Callsign)
	e.Double(3, m.Lat)
	e.Double(4, m.Lon)
	e.String(5, m.Status)
	return e.Bytes()
}

func (m *IFFData) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			m.ID = d.ReadString()
		case 2:
			m.Callsign = d.ReadString()
		case 3:
			m.Lat = d.ReadDouble()
		case 4:
			m.Lon = d.ReadDouble()
		case 5:
			m.Status = d.ReadString()
		default:
			d.Skip()
		}
	}
	return d.Err()
}

func (m *IFFStreamResponse) Reset() { *m = IFFStreamResponse{} }

func (m *IFFStreamResponse) MarshalProto() ([]byte, error) {
	var e pbcodec.Encoder
	if m.Data != nil {
		e.Message(1, m.Data)
	}
	return e.Bytes()
}

func (m *IFFStreamResponse) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			if m.Data == nil {
				m.Data = new(IFFData)
			}
			d.ReadMessage(m.Data)
		default:
			d.Skip()
		}
	}
	return d.Err()
}
