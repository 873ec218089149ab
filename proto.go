package pilotdash

import "encoding/json"

// Frame is the JSON envelope exchanged over the real-time channel.
//
// An event frame carries Event and Data; a non-zero ID asks the peer to
// acknowledge it. An ack frame carries Ack (the acknowledged ID) and the
// reply in Data.
type Frame struct {
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	ID    uint64          `json:"id,omitempty"`
	Ack   uint64          `json:"ack,omitempty"`
}

func (f Frame) IsAck() bool {
	return f.Ack != 0
}

// NewFrame encodes data into an event frame.
func NewFrame(event string, data any, id uint64) (Frame, error) {
	raw, err := encodeData(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: raw, ID: id}, nil
}

// NewAck encodes data into an ack frame for id.
func NewAck(id uint64, data any) (Frame, error) {
	raw, err := encodeData(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Ack: id, Data: raw}, nil
}

func encodeData(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(data)
	}
}
