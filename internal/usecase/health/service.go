// Package health aggregates component probes into the service-level
// status the /health endpoint reports.
package health

import "context"

// Status is the aggregate verdict. The two failure levels are not
// symmetric: nothing works without the report store, while a dead
// encoder only takes out similarity search and new vectors.
type Status string

const (
	// Healthy: every probed component answered.
	Healthy Status = "ok"
	// Degraded: encoder down, metadata operations still serve.
	Degraded Status = "degraded"
	// Unhealthy: report store unreachable.
	Unhealthy Status = "error"
)

// CheckResult is a single component's verdict.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report carries the aggregate status plus the per-component results
// that explain it.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs the component probes.
type Service struct {
	store   StorePinger
	encoder EncoderChecker
}

// New builds a Service. Pass a nil encoder when none is configured; its
// check is then omitted entirely rather than reported as failing.
func New(store StorePinger, encoder EncoderChecker) *Service {
	return &Service{store: store, encoder: encoder}
}

// Check probes the store and, when wired, the encoder. A store failure
// makes the verdict Unhealthy regardless of the encoder; an encoder
// failure alone only degrades.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: make(map[string]CheckResult, 2)}

	r.Checks["database"] = CheckOK
	if err := s.store.Ping(ctx); err != nil {
		r.Checks["database"] = CheckError
		r.Status = Unhealthy
	}

	if s.encoder == nil {
		return r
	}

	r.Checks["embedding"] = CheckOK
	if err := s.encoder.HealthCheck(ctx); err != nil {
		r.Checks["embedding"] = CheckError
		if r.Status == Healthy {
			r.Status = Degraded
		}
	}

	return r
}
