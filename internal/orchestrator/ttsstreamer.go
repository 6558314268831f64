package orchestrator

import (
	"context"
	"encoding/base64"
	"runtime"
	"time"

	"github.com/ent0n29/salestrain-gateway/internal/protocol"
)

// streamTTS implements the TTS Streamer & Barge-in Controller (spec.md
// §4.8). It runs on the owning goroutine and blocks it between frames only
// long enough to drain already-queued inbound messages and yield once to
// the scheduler, giving interrupt latency bounded by one frame.
func (d *Dispatcher) streamTTS(ctx context.Context, text string) {
	myEpoch := d.sess.NextTTSEpoch()
	d.sess.InterruptNotified = false

	synthesizeStart := time.Now()
	audio, err := d.deps.TTS.Synthesize(ctx, text)
	d.deps.Metrics.ObserveTurnStage("tts_synthesize", time.Since(synthesizeStart))
	if err != nil {
		d.log.Warn("orchestrator: tts synthesize failed", "error", err.Error())
		d.deps.Metrics.ObserveProviderError("tts", errorCode(err))
		d.send(protocol.ErrorMsg{Type: protocol.TypeError, Message: "voice synthesis is temporarily unavailable"})
		return
	}

	frameSize := d.deps.ttsFrameBytes()
	d.send(protocol.AgentAudioStart{Type: protocol.TypeAgentAudioStart})

	firstFrame := true
	for offset := 0; offset < len(audio); offset += frameSize {
		if d.sess.CallEnded || d.sess.TTSEpoch != myEpoch {
			d.emitInterruptOnce()
			return
		}

		end := offset + frameSize
		if end > len(audio) {
			end = len(audio)
		}
		frame := audio[offset:end]
		d.send(protocol.AgentAudioChunk{
			Type:       protocol.TypeAgentAudioChunk,
			Payload:    base64.StdEncoding.EncodeToString(frame),
			Format:     "pcm16",
			SampleRate: 16000,
		})
		if firstFrame {
			firstFrame = false
			d.deps.Metrics.ObserveFirstAudioLatency(time.Duration(d.nowMs()-d.sess.CallStartMs) * time.Millisecond)
		}

		d.drainInbound(ctx)
		runtime.Gosched()
	}

	if d.sess.CallEnded || d.sess.TTSEpoch != myEpoch {
		d.emitInterruptOnce()
		return
	}
	d.send(protocol.AgentAudioEnd{Type: protocol.TypeAgentAudioEnd})
}

func (d *Dispatcher) emitInterruptOnce() {
	if !d.sess.InterruptNotified {
		d.sess.InterruptNotified = true
		d.send(protocol.AgentInterrupt{Type: protocol.TypeAgentInterrupt})
	}
}

// drainInbound processes every client message already queued on the inbound
// channel without blocking, so a user.interrupt sent while the owning
// goroutine is mid-stream is observed at the very next frame boundary
// (spec.md §4.8: "the yield is mandatory — without it, interrupt latency is
// unbounded").
func (d *Dispatcher) drainInbound(ctx context.Context) {
	for {
		select {
		case msg, ok := <-d.inbound:
			if !ok {
				d.sess.CallEnded = true
				return
			}
			d.handleClientMessage(ctx, msg)
		default:
			return
		}
	}
}
