// Package health aggregates store and embedding provider checks.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means the store works but an embedding provider does not;
	// search and recommendation still answer through their fallbacks.
	Degraded Status = "degraded"
	// Unhealthy means the store is unreachable.
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

const databaseCheck = "database"

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding map[string]EmbeddingChecker
	perCheck  time.Duration
}

// New creates a Service. embedding maps check names (e.g. "embedding_remote")
// to providers and may be empty. perCheck bounds each check; zero means 2s.
func New(db DBPinger, embedding map[string]EmbeddingChecker, perCheck time.Duration) *Service {
	if perCheck <= 0 {
		perCheck = 2 * time.Second
	}
	return &Service{db: db, embedding: embedding, perCheck: perCheck}
}

// Check runs all checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(s.embedding)+1)
	)
	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.perCheck)
		defer cancel()

		res := CheckOK
		if err := fn(cctx); err != nil {
			logger.FromContext(ctx).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	wg.Add(1)
	go run(databaseCheck, s.db.Ping)
	for name, c := range s.embedding {
		wg.Add(1)
		go run(name, c.HealthCheck)
	}
	wg.Wait()

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == databaseCheck {
			status = Unhealthy
			break
		}
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
