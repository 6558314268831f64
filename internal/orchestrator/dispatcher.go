package orchestrator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/ent0n29/salestrain-gateway/internal/logging"
	"github.com/ent0n29/salestrain-gateway/internal/protocol"
	"github.com/ent0n29/salestrain-gateway/internal/providers/stt"
	"github.com/ent0n29/salestrain-gateway/internal/reliability"
	"github.com/ent0n29/salestrain-gateway/internal/scenario"
	"github.com/ent0n29/salestrain-gateway/internal/session"
)

// errorCode reports the reliability.Kind an error was classified with
// (spec.md §7), falling back to "unclassified" for errors the provider
// clients did not wrap — the mock clients in tests, for instance.
func errorCode(err error) string {
	var classified *reliability.Error
	if errors.As(err, &classified) {
		return string(classified.Kind)
	}
	return "unclassified"
}

// Dispatcher is the owning task for one Session: the only goroutine that
// mutates sess. Run drives its main loop until the context is cancelled or
// the connection ends.
type Dispatcher struct {
	deps Deps
	sess *session.Session
	log  logging.Logger
	agg  aggregator

	start time.Time

	inbound  <-chan any
	outbound chan<- any

	sttStream     stt.Stream
	sttEvents     <-chan stt.Event
	fallbackTimer *time.Timer
	micCapturing  bool

	coachHintChan chan coachHintResult
}

// NewDispatcher builds a Dispatcher for a freshly-accepted connection.
func NewDispatcher(deps Deps, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.NoOp{}
	}
	return &Dispatcher{
		deps:          deps,
		sess:          session.New(),
		log:           log,
		start:         time.Now(),
		coachHintChan: make(chan coachHintResult, 1),
	}
}

func (d *Dispatcher) nowMs() int64 {
	return time.Since(d.start).Milliseconds()
}

// Run is the Dispatcher's main loop (spec.md §4.1, §9). inbound delivers
// decoded client messages (anything protocol.ParseClientMessage can
// return); outbound carries server->client payloads for the transport layer
// to serialize and write, in emission order.
func (d *Dispatcher) Run(ctx context.Context, inbound <-chan any, outbound chan<- any) error {
	d.inbound = inbound
	d.outbound = outbound
	d.deps.Metrics.ObserveSessionEvent("connected")
	d.send(protocol.AgentConnected{Type: protocol.TypeAgentConnected})

	heartbeat := time.NewTicker(time.Duration(d.deps.heartbeatMs()) * time.Millisecond)
	defer heartbeat.Stop()
	defer d.teardown()

	for {
		var sttEventsC <-chan stt.Event
		if d.sttEvents != nil {
			sttEventsC = d.sttEvents
		}
		var fallbackC <-chan time.Time
		if d.fallbackTimer != nil {
			fallbackC = d.fallbackTimer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			d.handleClientMessage(ctx, msg)
			if d.sess.CallEnded {
				return nil
			}

		case ev, ok := <-sttEventsC:
			if !ok {
				d.sttEvents = nil
				continue
			}
			d.handleSTTEvent(ctx, ev)

		case <-fallbackC:
			d.fallbackTimer = nil
			// Fires only if the mic has left Capturing (spec.md §4.6, §9
			// open question: preserve this guard exactly as specified).
			if !d.micCapturing {
				d.flushAggregatorToQueue(ctx)
			}

		case res := <-d.coachHintChan:
			if res.err == nil && res.text != "" {
				d.send(protocol.CoachHint{Type: protocol.TypeCoachHint, Text: res.text})
			}

		case <-heartbeat.C:
			d.send(protocol.Ping{Type: protocol.TypePing, Timestamp: d.nowMs()})
		}
	}
}

func (d *Dispatcher) send(msg any) {
	d.deps.Metrics.ObserveOutboundMessage(fmt.Sprintf("%T", msg), "sent")
	if d.outbound == nil {
		return
	}
	d.outbound <- msg
}

func (d *Dispatcher) teardown() {
	if d.sttStream != nil {
		_ = d.sttStream.Close()
		d.sttStream = nil
	}
	if d.fallbackTimer != nil {
		d.fallbackTimer.Stop()
		d.fallbackTimer = nil
	}
}

// handleClientMessage dispatches one decoded client frame (spec.md §4.1).
// Unknown types cannot reach here: protocol.ParseClientMessage already
// rejects them, so a transport-layer decode error is logged and discarded
// before this method is ever called.
func (d *Dispatcher) handleClientMessage(ctx context.Context, msg any) {
	switch m := msg.(type) {
	case protocol.Auth:
		d.handleAuth(ctx, m)
	case protocol.ScenarioSelect:
		d.handleScenarioSelect(m)
	case protocol.DifficultyMode:
		d.handleDifficultyMode(ctx, m)
	case protocol.UserAudioStart:
		d.handleUserAudioStart(ctx, m)
	case protocol.UserAudioChunk:
		d.handleUserAudioChunk(m)
	case protocol.UserAudioEnd:
		d.handleUserAudioEnd()
	case protocol.UserInterrupt:
		d.handleInterrupt()
	case protocol.CallEnd:
		d.handleCallEnd(ctx)
	case protocol.CallReset:
		d.handleCallReset()
	case protocol.Pong:
		d.handlePong(m)
	default:
		d.log.Warn("orchestrator: unrecognized inbound message", "type", fmt.Sprintf("%T", msg))
	}
}

// handleAuth verifies the client-supplied token (spec.md §4.1, §6). On
// failure the session continues unauthenticated: sess.UserID stays empty,
// which is exactly the condition endofcall.go checks to skip persistence
// (spec.md §7 AuthInvalid: "session continues but is not persisted").
func (d *Dispatcher) handleAuth(ctx context.Context, m protocol.Auth) {
	if d.deps.Auth == nil {
		return
	}
	userID, err := d.deps.Auth.VerifyToken(ctx, m.Token)
	if err != nil {
		d.log.Warn("orchestrator: auth failed", "error", err.Error())
		return
	}
	d.sess.UserID = userID
}

func (d *Dispatcher) handleScenarioSelect(m protocol.ScenarioSelect) {
	if d.sess.Locked {
		return
	}
	if _, ok := scenario.Lookup(scenario.ID(m.ScenarioID)); !ok {
		return
	}
	d.sess.Scenario = m.ScenarioID
}

func (d *Dispatcher) handleDifficultyMode(ctx context.Context, m protocol.DifficultyMode) {
	d.sess.AutoDifficulty = m.Enabled
	level, averages := d.resolveDifficulty(ctx)
	d.send(protocol.DifficultyAssigned{
		Type:        protocol.TypeDifficultyAssigned,
		Level:       string(level),
		Averages:    averages,
		AutoEnabled: d.sess.AutoDifficulty,
	})
}

func (d *Dispatcher) handleUserAudioStart(ctx context.Context, m protocol.UserAudioStart) {
	if !d.sess.Locked {
		level, averages := d.resolveDifficulty(ctx)
		d.sess.Difficulty = level
		if d.sess.Scenario == "" {
			d.sess.Scenario = string(scenario.Default)
		}
		d.sess.Locked = true
		d.sess.CallStartMs = d.nowMs()
		prompt := d.buildPrompt()
		d.sess.SeedSystemTurn(prompt)
		d.send(protocol.DifficultyAssigned{
			Type:        protocol.TypeDifficultyAssigned,
			Level:       string(level),
			Averages:    averages,
			AutoEnabled: d.sess.AutoDifficulty,
		})
	}

	stream, err := d.deps.STT.OpenStream(ctx)
	if err != nil {
		d.log.Warn("orchestrator: stt open failed", "error", err.Error())
		d.deps.Metrics.ObserveProviderError("stt", errorCode(err))
		d.send(protocol.ErrorMsg{Type: protocol.TypeError, Message: "speech recognition is temporarily unavailable"})
		return
	}
	d.sttStream = stream
	d.sttEvents = stream.Events()
	d.micCapturing = true
	d.sess.SpeakingSegments = append(d.sess.SpeakingSegments, session.SpeakingSegment{
		StartMs:    d.nowMs(),
		SampleRate: m.SampleRate,
	})
}

// buildPrompt assembles the persona prompt for the locked scenario. Per
// spec.md §4.9, disabling autoDifficulty reports "Intermediate" to the
// client but appends no difficulty modifier to the prompt.
func (d *Dispatcher) buildPrompt() string {
	modifierLevel := string(d.sess.Difficulty)
	if !d.sess.AutoDifficulty {
		modifierLevel = ""
	}
	if d.deps.PromptBuilder != nil {
		return d.deps.PromptBuilder(d.sess.Scenario, modifierLevel)
	}
	return scenario.BuildPrompt(scenario.ID(d.sess.Scenario), modifierLevel)
}

func (d *Dispatcher) handleUserAudioChunk(m protocol.UserAudioChunk) {
	raw, err := base64.StdEncoding.DecodeString(m.PayloadBase64)
	if err != nil {
		d.log.Warn("orchestrator: malformed audio chunk", "error", err.Error())
		return
	}
	if d.sttStream != nil {
		if err := d.sttStream.SendAudio(raw); err != nil {
			d.log.Warn("orchestrator: stt send failed", "error", err.Error())
		}
	}
	if n := len(d.sess.SpeakingSegments); n > 0 {
		seg := &d.sess.SpeakingSegments[n-1]
		seg.Samples += int64(len(raw) / 2) // PCM16 = 2 bytes/sample
	}
}

func (d *Dispatcher) handleUserAudioEnd() {
	d.micCapturing = false
	if d.sttStream != nil {
		_ = d.sttStream.Close()
		d.sttStream = nil
	}
	d.sttEvents = nil
	if n := len(d.sess.SpeakingSegments); n > 0 {
		d.sess.SpeakingSegments[n-1].EndMs = d.nowMs()
	}
	ctx := context.Background()
	d.flushAggregatorToQueue(ctx)
	if d.fallbackTimer != nil {
		d.fallbackTimer.Stop()
		d.fallbackTimer = nil
	}
}

func (d *Dispatcher) handlePong(m protocol.Pong) {
	if m.Timestamp <= 0 {
		return
	}
	rtt := d.nowMs() - m.Timestamp
	d.log.Debug("orchestrator: heartbeat rtt", "rtt_ms", rtt)
}

func (d *Dispatcher) handleInterrupt() {
	signalMs := d.nowMs()
	if d.sess.Interrupt() {
		d.send(protocol.AgentInterrupt{Type: protocol.TypeAgentInterrupt})
		d.deps.Metrics.ObserveInterruptLatency(time.Duration(d.nowMs()-signalMs) * time.Millisecond)
	}
}

func (d *Dispatcher) handleCallReset() {
	d.teardown()
	d.agg = aggregator{}
	d.micCapturing = false
	d.sess.ResetForCall()
	d.deps.Metrics.ObserveSessionEvent("reset")
}

func (d *Dispatcher) handleCallEnd(ctx context.Context) {
	d.sess.CallEnded = true
	signalMs := d.nowMs()
	if d.sess.Interrupt() {
		d.send(protocol.AgentInterrupt{Type: protocol.TypeAgentInterrupt})
		d.deps.Metrics.ObserveInterruptLatency(time.Duration(d.nowMs()-signalMs) * time.Millisecond)
	}
	d.teardown()
	d.deps.Metrics.ObserveSessionEvent("call_end")
	d.runEndOfCallPipeline(ctx)
}

func (d *Dispatcher) handleSTTEvent(ctx context.Context, ev stt.Event) {
	switch ev.Kind {
	case stt.EventPartial:
		if ev.Text != "" {
			d.send(protocol.STTPartial{Type: protocol.TypeSTTPartial, Text: ev.Text})
		}
	case stt.EventFinal:
		if ev.Text == "" {
			return
		}
		d.send(protocol.STTFinal{Type: protocol.TypeSTTFinal, Text: ev.Text})
		d.sess.STTEvents = append(d.sess.STTEvents, session.STTEvent{
			Text:        ev.Text,
			MonotonicMs: d.nowMs(),
			Confidence:  ev.Confidence,
		})
		d.agg.addFinal(ev.Text)
		d.armFallbackTimer()
	case stt.EventUtteranceEnd:
		d.cancelFallbackTimer()
		d.flushAggregatorToQueue(ctx)
	case stt.EventError:
		d.log.Warn("orchestrator: stt stream error", "error", ev.Err.Error())
		d.deps.Metrics.ObserveProviderError("stt", errorCode(ev.Err))
		d.send(protocol.ErrorMsg{Type: protocol.TypeError, Message: "speech recognition is temporarily unavailable"})
	}
}

func (d *Dispatcher) armFallbackTimer() {
	if d.fallbackTimer != nil {
		d.fallbackTimer.Stop()
	}
	d.fallbackTimer = time.NewTimer(time.Duration(d.deps.fallbackSilenceMs()) * time.Millisecond)
}

func (d *Dispatcher) cancelFallbackTimer() {
	if d.fallbackTimer != nil {
		d.fallbackTimer.Stop()
		d.fallbackTimer = nil
	}
}

func (d *Dispatcher) flushAggregatorToQueue(ctx context.Context) {
	text := d.agg.flush()
	if text == "" {
		return
	}
	d.enqueueTurn(ctx, text)
}

type coachHintResult struct {
	text string
	err  error
}
