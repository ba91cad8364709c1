package mocks

import (
	"sync"

	"github.com/seu-repo/sigec-emu/internal/domain"
)

// CaptureSink records every emitted payload so tests can assert on the
// telemetry stream. Safe for concurrent use.
type CaptureSink struct {
	mu       sync.Mutex
	payloads []domain.Payload
}

func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

func (s *CaptureSink) Emit(payload domain.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
}

// Payloads returns a copy of everything captured so far.
func (s *CaptureSink) Payloads() []domain.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Payload, len(s.payloads))
	copy(out, s.payloads)
	return out
}

// ByType filters captured payloads on their messageType discriminator.
func (s *CaptureSink) ByType(payloadType string) []domain.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Payload
	for _, p := range s.payloads {
		if p.PayloadType() == payloadType {
			out = append(out, p)
		}
	}
	return out
}

// Reset clears the captured payloads.
func (s *CaptureSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = nil
}
