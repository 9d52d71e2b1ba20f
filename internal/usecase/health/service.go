package health

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const checkTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Components lists what to check. Nil fields are skipped.
type Components struct {
	Database  Pinger
	Cache     Pinger
	Embedding ProviderChecker
	LLM       ProviderChecker
}

// Service coordinates health checks.
type Service struct {
	c      Components
	logger *zap.Logger
}

// New creates a Service. Database is required.
func New(c Components, logger *zap.Logger) *Service {
	return &Service{c: c, logger: logger}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	components := map[string]func(context.Context) error{"database": s.c.Database.Ping}
	if s.c.Cache != nil {
		components["cache"] = s.c.Cache.Ping
	}
	if s.c.Embedding != nil {
		components["embedding"] = s.c.Embedding.HealthCheck
	}
	if s.c.LLM != nil {
		components["llm"] = s.c.LLM.HealthCheck
	}

	// Checks run in parallel, each under its own timeout; a failure never
	// cancels the others.
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(components))
		g      errgroup.Group
	)
	for name, fn := range components {
		g.Go(func() error {
			res := s.checkOne(ctx, name, fn)
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	switch {
	case checks["database"] == CheckError:
		status = Unhealthy
	case slices.Contains(slices.Collect(maps.Values(checks)), CheckError):
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) checkOne(ctx context.Context, name string, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.Warn("Health check failed",
			zap.String("component", name), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
