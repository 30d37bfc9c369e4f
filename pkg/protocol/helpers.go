package protocol

import "time"

// NewTelemetryMessage wraps one tick of telemetry.
func NewTelemetryMessage(t TelemetryData) (*Message, error) {
	return NewMessage(TypeTelemetry, t)
}

// NewPhaseMessage announces a phase change.
func NewPhaseMessage(from, to string, warmup *WarmupStats) (*Message, error) {
	return NewMessage(TypePhase, PhaseData{From: from, To: to, Warmup: warmup})
}

// NewStreamMessage wraps publisher counters.
func NewStreamMessage(s StreamData) (*Message, error) {
	return NewMessage(TypeStream, s)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response to a ping
func NewPongMessage(ping PingData) (*Message, error) {
	now := time.Now().UnixMilli()
	return NewMessage(TypePong, PongData{
		ID:        ping.ID,
		PingTS:    ping.Timestamp,
		PongTS:    now,
		LatencyMs: now - ping.Timestamp,
	})
}

// GetTelemetryData extracts telemetry from a message
func (m *Message) GetTelemetryData() (*TelemetryData, error) {
	var data TelemetryData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPhaseData extracts a phase change from a message
func (m *Message) GetPhaseData() (*PhaseData, error) {
	var data PhaseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStreamData extracts stream counters from a message
func (m *Message) GetStreamData() (*StreamData, error) {
	var data StreamData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
