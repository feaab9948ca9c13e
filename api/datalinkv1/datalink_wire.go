package datalinkv1

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/signalsfoundry/datalink-fusion/api/pbcodec"
)

func (m *DatalinkTrack) Reset() { *m = DatalinkTrack{} }

func (m *DatalinkTrack) MarshalProto() ([]byte, error) {
	var e pbcodec.Encoder
	e.String(1, m.TrackID)
	e.Double(2, m.Latitude)
	e.Double(3, m.Longitude)
	e.Double(4, m.AltitudeM)
	e.Double(5, m.Speed)
	e.Double(6, m.Heading)
	e.String(7, m.Platform)
	e.String(8, m.Callsign)
	e.Int32(9, int32(m.Identification))
	e.Int32(10, int32(m.IdentificationSource))
	e.Proto(11, m.UpdatedAt)
	e.Proto(12, m.CreatedAt)
	return e.Bytes()
}

func (m *DatalinkTrack) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			m.TrackID = d.ReadString()
		case 2:
			m.Latitude = d.ReadDouble()
		case 3:
			m.Longitude = d.ReadDouble()
		case 4:
			m.AltitudeM = d.ReadDouble()
		case 5:
			m.Speed = d.ReadDouble()
		case 6:
			m.Heading = d.ReadDouble()
		case 7:
			m.Platform = d.ReadString()
		case 8:
			m.Callsign = d.ReadString()
		case 9:
			m.Identification = Identification(d.ReadInt32())
		case 10:
			m.IdentificationSource = IdentificationSource(d.ReadInt32())
		case 11:
			if m.UpdatedAt == nil {
				m.UpdatedAt = new(timestamppb.Timestamp)
			}
			d.ReadProto(m.UpdatedAt)
		case 12:
			if m.CreatedAt == nil {
				m.CreatedAt = new(timestamppb.Timestamp)
			}
			d.ReadProto(m.CreatedAt)
		default:
			d.Skip()
		}
	}
	return d.Err()
}

// unmarshalTrackID decodes the single-field requests that carry only a track
// ID in field 1.
func unmarshalTrackID(b []byte, id *string) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		if d.Field() == 1 {
			*id = d.ReadString()
			continue
		}
		d.Skip()
	}
	return d.Err()
}

func marshalTrackID(id string) ([]byte, error) {
	var e pbcodec.Encoder
	e.String(1, id)
	return e.Bytes()
}

// unmarshalTrack decodes a response whose only field is the track in
// field 1.
func unmarshalTrack(b []byte, track **DatalinkTrack) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		if d.Field() == 1 {
			if *track == nil {
				*track = new(DatalinkTrack)
			}
			d.ReadMessage(*track)
			continue
		}
		d.Skip()
	}
	return d.Err()
}

func marshalTrack(track *DatalinkTrack) ([]byte, error) {
	var e pbcodec.Encoder
	if track != nil {
		e.Message(1, track)
	}
	return e.Bytes()
}

func (m *GetTrackRequest) Reset()                        { *m = GetTrackRequest{} }
func (m *GetTrackRequest) MarshalProto() ([]byte, error) { return marshalTrackID(m.TrackID) }
func (m *GetTrackRequest) UnmarshalProto(b []byte) error { return unmarshalTrackID(b, &m.TrackID) }

func (m *ClearManualIdentificationRequest) Reset() { *m = ClearManualIdentificationRequest{} }
func (m *ClearManualIdentificationRequest) MarshalProto() ([]byte, error) {
	return marshalTrackID(m.TrackID)
}
func (m *ClearManualIdentificationRequest) UnmarshalProto(b []byte) error {
	return unmarshalTrackID(b, &m.TrackID)
}

func (m *GetTrackResponse) Reset()                        { *m = GetTrackResponse{} }
func (m *GetTrackResponse) MarshalProto() ([]byte, error) { return marshalTrack(m.Track) }
func (m *GetTrackResponse) UnmarshalProto(b []byte) error { return unmarshalTrack(b, &m.Track) }

func (m *SetManualIdentificationResponse) Reset() { *m = SetManualIdentificationResponse{} }
func (m *SetManualIdentificationResponse) MarshalProto() ([]byte, error) {
	return marshalTrack(m.Track)
}
func (m *SetManualIdentificationResponse) UnmarshalProto(b []byte) error {
	return unmarshalTrack(b, &m.Track)
}

func (m *ClearManualIdentificationResponse) Reset() { *m = ClearManualIdentificationResponse{} }
func (m *ClearManualIdentificationResponse) MarshalProto() ([]byte, error) {
	return marshalTrack(m.Track)
}
func (m *ClearManualIdentificationResponse) UnmarshalProto(b []byte) error {
	return unmarshalTrack(b, &m.Track)
}

func (m *ListTracksRequest) Reset()                        { *m = ListTracksRequest{} }
func (m *ListTracksRequest) MarshalProto() ([]byte, error) { return []byte{}, nil }
func (m *ListTracksRequest) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		d.Skip()
	}
	return d.Err()
}

func (m *ListTracksResponse) Reset() { *m = ListTracksResponse{} }

func (m *ListTracksResponse) MarshalProto() ([]byte, error) {
	var e pbcodec.Encoder
	for _, t := range m.Tracks {
		if t == nil {
			t = &DatalinkTrack{}
		}
		e.Message(1, t)
	}
	return e.Bytes()
}

func (m *ListTracksResponse) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			t := new(DatalinkTrack)
			d.ReadMessage(t)
			m.Tracks = append(m.Tracks, t)
		default:
			d.Skip()
		}
	}
	return d.Err()
}

func (m *SetManualIdentificationRequest) Reset() { *m = SetManualIdentificationRequest{} }

func (m *SetManualIdentificationRequest) MarshalProto() ([]byte, error) {
	var e pbcodec.Encoder
	e.String(1, m.TrackID)
	e.Int32(2, int32(m.Identification))
	return e.Bytes()
}

func (m *SetManualIdentificationRequest) UnmarshalProto(b []byte) error {
	d := pbcodec.NewDecoder(b)
	for d.Next() {
		switch d.Field() {
		case 1:
			m.TrackID = d.ReadString()
		case 2:
			m.Identification = Identification(d.ReadInt32())
		default:
			d.Skip()
		}
	}
	return d.Err()
}
