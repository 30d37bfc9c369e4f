// Package protocol defines the JSON messages the vehicle pushes to
// dashboard and lanewatch clients over the telemetry websocket.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Vehicle → client messages
	TypeTelemetry MessageType = "telemetry" // One control loop tick
	TypePhase     MessageType = "phase"     // Warmup/run transitions
	TypeStream    MessageType = "stream"    // Debug stream counters

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// TelemetryData is the state of one control loop tick.
type TelemetryData struct {
	Tick     uint64  `json:"tick"`
	Phase    string  `json:"phase"`  // "warmup", "run", "stopped"
	Policy   string  `json:"policy"` // "balance", "centroid"
	Error    float64 `json:"error"`
	Found    bool    `json:"found"` // lane pixels present
	Steering float64 `json:"steering"`
	Left     float64 `json:"left"`  // wheel power 0-100
	Right    float64 `json:"right"` // wheel power 0-100
	Actuated bool    `json:"actuated"`
	DtMs     float64 `json:"dt_ms"`
}

// PhaseData announces a phase change.
type PhaseData struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Warmup *WarmupStats `json:"warmup,omitempty"`
}

// WarmupStats summarizes the warmup phase.
type WarmupStats struct {
	Frames      int     `json:"frames"`
	LaneFrames  int     `json:"lane_frames"`
	MeanError   float64 `json:"mean_error"`
	Skipped     int     `json:"skipped"`
	DurationSec float64 `json:"duration_sec"`
}

// StreamData mirrors the debug stream publisher counters.
type StreamData struct {
	Published    uint64 `json:"published"`
	Dropped      uint64 `json:"dropped"`
	EncodeErrors uint64 `json:"encode_errors"`
	Delivered    uint64 `json:"delivered"`
	LastSeq      uint64 `json:"last_seq"`
	Subscribers  int    `json:"subscribers"`
}

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
