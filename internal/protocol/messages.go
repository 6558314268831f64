// Package protocol implements the Codec component: typed JSON framing for
// the gateway's single WebSocket endpoint, with raw PCM16 audio carried as
// base64 within string fields.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies a websocket frame's payload shape.
type MessageType string

const (
	// Client -> server.
	TypeAuth           MessageType = "auth"
	TypeScenarioSelect MessageType = "scenario.select"
	TypeDifficultyMode MessageType = "difficulty.mode"
	TypeUserAudioStart MessageType = "user.audio.start"
	TypeUserAudioChunk MessageType = "user.audio.chunk"
	TypeUserAudioEnd   MessageType = "user.audio.end"
	TypeUserInterrupt  MessageType = "user.interrupt"
	TypeCallEnd        MessageType = "call.end"
	TypeCallReset      MessageType = "call.reset"
	TypePong           MessageType = "pong"

	// Server -> client.
	TypeAgentConnected     MessageType = "agent_connected"
	TypePing               MessageType = "ping"
	TypeDifficultyAssigned MessageType = "difficulty.assigned"
	TypeSTTPartial         MessageType = "stt.partial"
	TypeSTTFinal           MessageType = "stt.final"
	TypeAgentText          MessageType = "agent.text"
	TypeCoachHint          MessageType = "coach.hint"
	TypeAgentAudioStart    MessageType = "agent.audio.start"
	TypeAgentAudioChunk    MessageType = "agent.audio.chunk"
	TypeAgentAudioEnd      MessageType = "agent.audio.end"
	TypeAgentInterrupt     MessageType = "agent.interrupt"
	TypeCallFeedback       MessageType = "call.feedback"
	TypeError              MessageType = "error"
)

// ErrUnsupportedType is returned by ParseClientMessage for frames whose
// type is not one of the recognized client->server message kinds.
var ErrUnsupportedType = errors.New("unsupported message type")

// Client -> server payloads.

type Auth struct {
	Type  MessageType `json:"type"`
	Token string      `json:"token"`
}

type ScenarioSelect struct {
	Type       MessageType `json:"type"`
	ScenarioID string      `json:"scenarioId"`
}

type DifficultyMode struct {
	Type    MessageType `json:"type"`
	Enabled bool        `json:"enabled"`
}

type UserAudioStart struct {
	Type       MessageType `json:"type"`
	SampleRate int         `json:"sampleRate"`
}

type UserAudioChunk struct {
	Type          MessageType `json:"type"`
	PayloadBase64 string      `json:"payload"`
}

type UserAudioEnd struct {
	Type MessageType `json:"type"`
}

type UserInterrupt struct {
	Type MessageType `json:"type"`
}

type CallEnd struct {
	Type MessageType `json:"type"`
}

type CallReset struct {
	Type MessageType `json:"type"`
}

type Pong struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// Server -> client payloads.

type AgentConnected struct {
	Type MessageType `json:"type"`
}

type Ping struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
}

type DifficultyAssigned struct {
	Type        MessageType        `json:"type"`
	Level       string             `json:"level"`
	Averages    map[string]float64 `json:"averages"`
	AutoEnabled bool               `json:"autoEnabled"`
}

type STTPartial struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

type STTFinal struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

type AgentTextMsg struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

type CoachHint struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

type AgentAudioStart struct {
	Type MessageType `json:"type"`
}

type AgentAudioChunk struct {
	Type       MessageType `json:"type"`
	Payload    string      `json:"payload"`
	Format     string      `json:"format"`
	SampleRate int         `json:"sampleRate"`
}

type AgentAudioEnd struct {
	Type MessageType `json:"type"`
}

type AgentInterrupt struct {
	Type MessageType `json:"type"`
}

type CallFeedback struct {
	Type                 MessageType `json:"type"`
	Payload              any         `json:"payload"`
	ConversationMetrics  any         `json:"conversationMetrics"`
	AudioMetrics         any         `json:"audioMetrics"`
	CallDurationMs       int64       `json:"callDurationMs"`
	TurnCount            int         `json:"turnCount"`
}

type ErrorMsg struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// clientInbound is a superset of every client->server field, used to decode
// once and dispatch on Type.
type clientInbound struct {
	Type       MessageType `json:"type"`
	Token      string      `json:"token"`
	ScenarioID string      `json:"scenarioId"`
	Enabled    bool        `json:"enabled"`
	SampleRate int         `json:"sampleRate"`
	Payload    string      `json:"payload"`
	Timestamp  int64       `json:"timestamp"`
}

// ParseClientMessage decodes a raw websocket text frame into one of the
// typed client->server structs. It never panics on malformed input: any
// decoding or validation failure is returned as an error for the caller to
// log and discard, per the Codec's "must not throw" contract.
func ParseClientMessage(raw []byte) (any, error) {
	var in clientInbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	switch in.Type {
	case TypeAuth:
		return Auth{Type: TypeAuth, Token: in.Token}, nil
	case TypeScenarioSelect:
		if in.ScenarioID == "" {
			return nil, errors.New("scenario.select requires scenarioId")
		}
		return ScenarioSelect{Type: TypeScenarioSelect, ScenarioID: in.ScenarioID}, nil
	case TypeDifficultyMode:
		return DifficultyMode{Type: TypeDifficultyMode, Enabled: in.Enabled}, nil
	case TypeUserAudioStart:
		if in.SampleRate <= 0 {
			return nil, errors.New("user.audio.start requires a positive sampleRate")
		}
		return UserAudioStart{Type: TypeUserAudioStart, SampleRate: in.SampleRate}, nil
	case TypeUserAudioChunk:
		if in.Payload == "" {
			return nil, errors.New("user.audio.chunk requires payload")
		}
		return UserAudioChunk{Type: TypeUserAudioChunk, PayloadBase64: in.Payload}, nil
	case TypeUserAudioEnd:
		return UserAudioEnd{Type: TypeUserAudioEnd}, nil
	case TypeUserInterrupt:
		return UserInterrupt{Type: TypeUserInterrupt}, nil
	case TypeCallEnd:
		return CallEnd{Type: TypeCallEnd}, nil
	case TypeCallReset:
		return CallReset{Type: TypeCallReset}, nil
	case TypePong:
		return Pong{Type: TypePong, Timestamp: in.Timestamp}, nil
	default:
		return nil, ErrUnsupportedType
	}
}
