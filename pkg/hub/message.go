// Package hub fans telemetry out to websocket clients using the
// channel-based register/unregister/broadcast pattern. Slow clients are
// dropped rather than allowed to stall the vehicle.
package hub

import "github.com/teslashibe/go-lanebot/pkg/protocol"

// Message is one pre-encoded JSON text frame.
type Message struct {
	Data []byte
}

// Encode turns a protocol message into a hub message.
func Encode(m *protocol.Message) (Message, error) {
	b, err := m.Bytes()
	if err != nil {
		return Message{}, err
	}
	return Message{Data: b}, nil
}
