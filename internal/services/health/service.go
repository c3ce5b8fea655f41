package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"medreport-backend/internal/shared/util"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Service runs the registered dependency checks.
type Service struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a health service with no checks.
func NewService() *Service {
	return &Service{checks: map[string]Check{}, timeout: 2 * time.Second}
}

// Register adds or replaces the check for name.
func (s *Service) Register(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Status is the health payload.
type Status struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Status runs every check with a shared timeout. The service is ok only if
// every check passes.
func (s *Service) Status(ctx context.Context) Status {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := Status{OK: true}
	if len(names) == 0 {
		return out
	}
	out.Checks = make(map[string]string, len(names))
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			out.OK = false
			out.Checks[name] = util.SanitizeError(err)
			continue
		}
		out.Checks[name] = "ok"
	}
	return out
}
