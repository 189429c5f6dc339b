package job

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/delivery"
)

const streamKeyLen = 32

// StreamMux multiplexes many concurrent protocol runs over one shared
// Transport, keyed by a 32-byte prefix on every envelope's payload,
// grounded on spec.md §5's "transport multiplexed per-run by a stream
// key, guaranteeing distinct message streams across concurrent runs." A
// single background goroutine pumps the underlying transport's inbound
// stream and fans each message out to whichever run's stream key
// matches its prefix; a message whose key matches no open run is
// dropped, the same hostile/stale-message treatment the Delivery Adapter
// gives an undecodable payload.
type StreamMux struct {
	inner delivery.Transport

	mu      sync.Mutex
	started bool
	subs    map[[streamKeyLen]byte]chan delivery.Envelope
}

// NewStreamMux wraps inner for per-run multiplexing. inner must not be
// used directly by any other caller once wrapped.
func NewStreamMux(inner delivery.Transport) *StreamMux {
	return &StreamMux{inner: inner, subs: make(map[[streamKeyLen]byte]chan delivery.Envelope)}
}

// Open registers a new logical stream under key and starts the shared
// pump goroutine on first use. The returned Transport is scoped to this
// run only; call Close when the run ends.
func (m *StreamMux) Open(ctx context.Context, key [streamKeyLen]byte) delivery.Transport {
	m.mu.Lock()
	ch := make(chan delivery.Envelope, 64)
	m.subs[key] = ch
	first := !m.started
	m.started = true
	m.mu.Unlock()

	if first {
		go m.pump(ctx)
	}
	return &streamTransport{mux: m, key: key, inbox: ch}
}

// Close deregisters a run's stream. Safe to call once per Open.
func (m *StreamMux) Close(key [streamKeyLen]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.subs[key]; ok {
		close(ch)
		delete(m.subs, key)
	}
}

func (m *StreamMux) pump(ctx context.Context) {
	for {
		env, err := m.inner.NextMessage(ctx)
		if err != nil {
			m.mu.Lock()
			for key, ch := range m.subs {
				close(ch)
				delete(m.subs, key)
			}
			m.mu.Unlock()
			return
		}
		if len(env.Payload) < streamKeyLen {
			continue
		}
		var key [streamKeyLen]byte
		copy(key[:], env.Payload[:streamKeyLen])

		m.mu.Lock()
		ch, ok := m.subs[key]
		m.mu.Unlock()
		if !ok {
			continue
		}
		ch <- delivery.Envelope{Sender: env.Sender, Recipient: env.Recipient, Payload: env.Payload[streamKeyLen:]}
	}
}

type streamTransport struct {
	mux   *StreamMux
	key   [streamKeyLen]byte
	inbox chan delivery.Envelope
}

func (s *streamTransport) SendMessage(ctx context.Context, env delivery.Envelope) error {
	payload := make([]byte, 0, streamKeyLen+len(env.Payload))
	payload = append(payload, s.key[:]...)
	payload = append(payload, env.Payload...)
	return s.mux.inner.SendMessage(ctx, delivery.Envelope{Sender: env.Sender, Recipient: env.Recipient, Payload: payload})
}

func (s *streamTransport) NextMessage(ctx context.Context) (delivery.Envelope, error) {
	select {
	case <-ctx.Done():
		return delivery.Envelope{}, ctx.Err()
	case env, ok := <-s.inbox:
		if !ok {
			return delivery.Envelope{}, errors.New("job: stream closed")
		}
		return env, nil
	}
}
