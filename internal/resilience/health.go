// Copyright 2025 Inventory Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resilience

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckFunc probes one dependency
type HealthCheckFunc func(ctx context.Context) error

// HealthCheckResult is the outcome of one probe
type HealthCheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HealthReport is the overall report returned by the health endpoint
type HealthReport struct {
	Status      HealthStatus                 `json:"status"`
	ServiceName string                       `json:"service_name"`
	Uptime      string                       `json:"uptime"`
	Timestamp   time.Time                    `json:"timestamp"`
	Checks      map[string]HealthCheckResult `json:"checks"`
}

// HealthChecker runs named dependency probes on demand
type HealthChecker struct {
	serviceName string
	checks      map[string]HealthCheckFunc
	startTime   time.Time
	mu          sync.RWMutex
	logger      *zap.Logger
}

// NewHealthChecker creates a health checker
func NewHealthChecker(serviceName string, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthChecker{
		serviceName: serviceName,
		checks:      make(map[string]HealthCheckFunc),
		startTime:   time.Now(),
		logger:      logger,
	}
}

// AddCheck registers a named probe
func (hc *HealthChecker) AddCheck(name string, check HealthCheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// Report runs every probe and aggregates the results. The overall status is
// healthy only when every probe passes.
func (hc *HealthChecker) Report(ctx context.Context) HealthReport {
	hc.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
	}
	hc.mu.RUnlock()

	report := HealthReport{
		Status:      HealthStatusHealthy,
		ServiceName: hc.serviceName,
		Uptime:      time.Since(hc.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Checks:      make(map[string]HealthCheckResult, len(checks)),
	}

	for name, check := range checks {
		start := time.Now()
		result := HealthCheckResult{Status: HealthStatusHealthy}
		if err := check(ctx); err != nil {
			result.Status = HealthStatusUnhealthy
			result.Message = err.Error()
			report.Status = HealthStatusUnhealthy
			hc.logger.Warn("Health check failed",
				zap.String("check", name),
				zap.Error(err))
		}
		result.Duration = time.Since(start)
		report.Checks[name] = result
	}

	return report
}
