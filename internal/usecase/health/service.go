package health

import "context"

// Status is the aggregated health of the service.
type Status string

const (
	// Healthy: every probe passed.
	Healthy Status = "healthy"
	// Degraded: the store is up but the embedding provider is not.
	// Vector queries still work; text operations will fail.
	Degraded Status = "degraded"
	// Unhealthy: the store is unreachable.
	Unhealthy Status = "unhealthy"
)

// CheckResult is an individual probe outcome.
type CheckResult string

const (
	// CheckOK indicates a passing probe.
	CheckOK CheckResult = "ok"
	// CheckFailed indicates a failing probe.
	CheckFailed CheckResult = "failed"
)

// Report aggregates probe results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service probes the vector store and, when configured, the embedding provider.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{store: store, embedding: embedding}
}

// Check runs every probe. The store is load-bearing: losing it makes the
// service unhealthy, while an embedding failure alone only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.store.Ping(ctx); err != nil {
		checks["database"] = CheckFailed
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckFailed
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["embedding"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
