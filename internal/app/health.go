package app

import (
	"sync/atomic"

	"github.com/florianilch/aihub/internal/api"
)

// Health holds the readiness reported by /health/ready. Safe for concurrent use.
type Health struct {
	ready atomic.Bool
}

var _ api.ReadinessChecker = (*Health)(nil)

// NewHealth returns a Health that is not ready.
func NewHealth() *Health {
	return &Health{}
}

func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Health) IsReady() bool {
	return h.ready.Load()
}
