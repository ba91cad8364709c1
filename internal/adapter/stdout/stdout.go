// Package stdout writes telemetry payloads as JSON lines to a writer,
// for local development and for piping into other tools.
package stdout

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-emu/internal/domain"
)

type Sink struct {
	mu  sync.Mutex
	enc *json.Encoder
	log *zap.Logger
}

func NewSink(w io.Writer, log *zap.Logger) *Sink {
	return &Sink{
		enc: json.NewEncoder(w),
		log: log,
	}
}

func (s *Sink) Emit(payload domain.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(payload); err != nil {
		s.log.Error("write telemetry line",
			zap.String("type", payload.PayloadType()),
			zap.Error(err),
		)
	}
}
