package game

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
)

// Registry owns the live sessions and maps the short human-typed codes to
// them. Sessions remove themselves through the teardown callback installed
// at creation.
type Registry struct {
	cfg       Config
	logger    *slog.Logger
	questions QuestionSource

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(cfg Config, logger *slog.Logger, questions QuestionSource) *Registry {
	return &Registry{
		cfg:       cfg,
		logger:    logger,
		questions: questions,
		sessions:  make(map[string]*Session),
	}
}

// Create starts a new session under a fresh four-digit code.
func (r *Registry) Create(ctx context.Context) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := newCode()
	for r.sessions[code] != nil {
		code = newCode()
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	s := NewSession(ctx, code, r.cfg, r.logger, r.questions, rng, func() {
		r.remove(code)
	})
	r.sessions[code] = s
	return s
}

// Get looks up a running session by code.
func (r *Registry) Get(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	return s, ok
}

func (r *Registry) remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, code)
	r.logger.Info("session removed", "room", code)
}

// newCode draws a code in 1000-9999, matching what players type in.
func newCode() string {
	digits := []byte{
		byte('1' + rand.IntN(9)),
		byte('0' + rand.IntN(10)),
		byte('0' + rand.IntN(10)),
		byte('0' + rand.IntN(10)),
	}
	return string(digits)
}
