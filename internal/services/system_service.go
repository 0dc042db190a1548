package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/jooyeonthemaster/book/internal/domain"
	"github.com/jooyeonthemaster/book/internal/repositories"
)

const catalogCheckName = "catalog"

// BuildInfo is the release metadata reported by /healthz and /readyz.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// CatalogCounter reports how many books and fragrances are loaded.
type CatalogCounter interface {
	Counts() (books, fragrances int)
}

// SystemServiceDeps wires the readiness probes.
type SystemServiceDeps struct {
	Dependencies repositories.HealthRepository
	Catalog      CatalogCounter
	Clock        func() time.Time
	Build        BuildInfo
}

type systemService struct {
	deps    repositories.HealthRepository
	catalog CatalogCounter
	clock   func() time.Time
	build   BuildInfo
}

var _ SystemService = (*systemService)(nil)

// NewSystemService requires a catalog. Dependency probes are optional; without them only the catalog is reported.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("system service: catalog is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	build := deps.Build
	if build.StartedAt.IsZero() {
		build.StartedAt = clock()
	}
	return &systemService{
		deps:    deps.Dependencies,
		catalog: deps.Catalog,
		clock:   func() time.Time { return clock().UTC() },
		build:   build,
	}, nil
}

func (s *systemService) HealthReport(ctx context.Context) (SystemHealthReport, error) {
	now := s.clock()
	report := SystemHealthReport{Checks: map[string]domain.SystemHealthCheck{}}
	if s.deps != nil {
		collected, err := s.deps.Collect(ctx)
		if err != nil {
			return SystemHealthReport{}, err
		}
		report = collected
		if report.Checks == nil {
			report.Checks = map[string]domain.SystemHealthCheck{}
		}
	}

	report.Checks[catalogCheckName] = s.catalogCheck(now)
	report.Status = worstStatus(report.Checks)

	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = now
	}
	report.GeneratedAt = report.GeneratedAt.UTC()
	if strings.TrimSpace(report.Version) == "" {
		report.Version = s.build.Version
	}
	if strings.TrimSpace(report.CommitSHA) == "" {
		report.CommitSHA = s.build.CommitSHA
	}
	if strings.TrimSpace(report.Environment) == "" {
		report.Environment = s.build.Environment
	}
	if report.Uptime <= 0 {
		report.Uptime = now.Sub(s.build.StartedAt)
	}
	return report, nil
}

func (s *systemService) catalogCheck(now time.Time) domain.SystemHealthCheck {
	books, fragrances := s.catalog.Counts()
	check := domain.SystemHealthCheck{
		Status:    domain.HealthStatusOK,
		Detail:    fmt.Sprintf("books=%d fragrances=%d", books, fragrances),
		CheckedAt: now,
	}
	if books == 0 || fragrances == 0 {
		check.Status = domain.HealthStatusError
		check.Error = "catalog is empty"
	}
	return check
}

// worstStatus ranks ok < degraded < error; unknown statuses count as degraded.
func worstStatus(checks map[string]domain.SystemHealthCheck) string {
	status := domain.HealthStatusOK
	for _, check := range checks {
		switch check.Status {
		case domain.HealthStatusOK, "":
		case domain.HealthStatusError:
			return domain.HealthStatusError
		default:
			status = domain.HealthStatusDegraded
		}
	}
	return status
}
