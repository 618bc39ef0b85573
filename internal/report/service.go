// Package report orchestrates the surveillance engines over persisted
// facility snapshots: load, migrate, compute, save, and redact-before-export.
// The engines themselves never touch storage; this layer owns all I/O.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/carewatch/stewardship/internal/forecast"
	"github.com/carewatch/stewardship/internal/ingest"
	"github.com/carewatch/stewardship/internal/metrics"
	"github.com/carewatch/stewardship/internal/migration"
	"github.com/carewatch/stewardship/internal/outbreak"
	"github.com/carewatch/stewardship/internal/redaction"
	"github.com/carewatch/stewardship/internal/workflow"
	"github.com/carewatch/stewardship/pkg/config"
	"github.com/carewatch/stewardship/pkg/dateutil"
	"github.com/carewatch/stewardship/pkg/logger"
	"github.com/carewatch/stewardship/pkg/monitoring"
	"github.com/carewatch/stewardship/pkg/repository"
	"github.com/carewatch/stewardship/pkg/types"
)

// SurveillancePeriodReport is the full derived surveillance picture for one
// facility over one date range.
type SurveillancePeriodReport struct {
	FacilityID string `json:"facility_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`

	ResidentDaysMidnightSum    int     `json:"resident_days_midnight_sum"`
	ResidentDaysADC            int     `json:"resident_days_adc"`
	ABTStarts                  int     `json:"abt_starts"`
	TotalDaysOfTherapy         int     `json:"total_days_of_therapy"`
	AntibioticUtilizationRatio float64 `json:"antibiotic_utilization_ratio"`
	InfectionRatePer1000       float64 `json:"infection_rate_per_1000"`

	Trend        forecast.TrendAnalysis      `json:"trend"`
	Forecast     []forecast.ForecastPoint    `json:"forecast"`
	Seasonal     forecast.SeasonalRiskResult `json:"seasonal"`
	OutbreakRisk forecast.RiskAssessment     `json:"outbreak_risk"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Service orchestrates snapshot load, migration, metric computation and
// export redaction for the surveillance HTTP surface.
type Service struct {
	config     *config.Config
	logger     *logger.Logger
	repo       repository.SnapshotRepository
	normalizer *ingest.Normalizer
	migrator   *migration.Engine
	calculator *metrics.Calculator
	recorder   *workflow.Recorder
	collector  *monitoring.MetricsCollector
}

// NewService creates a new surveillance report service. The collector may be
// nil when monitoring is disabled.
func NewService(cfg *config.Config, log *logger.Logger, repo repository.SnapshotRepository, collector *monitoring.MetricsCollector) *Service {
	return &Service{
		config:     cfg,
		logger:     log,
		repo:       repo,
		normalizer: ingest.NewNormalizer(log),
		migrator:   migration.NewEngine(log),
		calculator: metrics.NewCalculator(log),
		recorder:   workflow.NewRecorder(cfg.Surveillance.WorkflowRetentionCap, log),
		collector:  collector,
	}
}

// ImportSnapshot normalizes a raw legacy snapshot document, runs all
// structural migrations, and persists the result as the facility's snapshot.
func (s *Service) ImportSnapshot(ctx context.Context, facilityID string, raw map[string]interface{}) (*types.Snapshot, error) {
	snap, err := s.normalizer.NormalizeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize snapshot: %w", err)
	}

	results, err := s.migrator.RunAll(snap)
	if err != nil {
		s.recordMigration("run_all", "error")
		return nil, fmt.Errorf("failed to migrate snapshot: %w", err)
	}
	s.recordMigration("run_all", "success")
	s.logMigrations(facilityID, results)

	if err := s.repo.Save(ctx, facilityID, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.WithField("facility_id", facilityID).Info("Snapshot imported")
	return snap, nil
}

// GenerateReport loads the facility snapshot, applies any pending
// migrations, computes the full surveillance report for the range, and
// saves the (possibly migrated) snapshot back. Save failures are logged but
// do not invalidate the computed report; saves are last-write-wins.
func (s *Service) GenerateReport(ctx context.Context, facilityID string, r dateutil.DateRange) (*SurveillancePeriodReport, error) {
	started := time.Now()

	snap, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		s.recordReport(facilityID, "error", started)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	results, err := s.migrator.RunAll(snap)
	if err != nil {
		s.recordReport(facilityID, "error", started)
		return nil, fmt.Errorf("failed to migrate snapshot: %w", err)
	}
	for _, res := range results {
		if res.Migrated {
			s.recordMigration("run_all", "applied")
		}
	}
	s.logMigrations(facilityID, results)

	residentDays := s.calculator.ResidentDays(r, snap.CensusSnapshots, metrics.MethodMidnightCensusSum)
	totalDOT := s.calculator.TotalDaysOfTherapy(snap.AntibioticCourses, r)

	series := s.dailyCaseSeries(snap.IPCases, r)
	values := make([]float64, len(series))
	for i, obs := range series {
		values[i] = obs.Value
	}

	seasonal := forecast.SeasonalRisk(r.End)
	casesByType, casesByUnit := s.recentClusters(snap.IPCases, r)

	report := &SurveillancePeriodReport{
		FacilityID: facilityID,
		StartDate:  r.Start.Format(dateutil.ISODate),
		EndDate:    r.End.Format(dateutil.ISODate),

		ResidentDaysMidnightSum:    residentDays,
		ResidentDaysADC:            s.calculator.ResidentDays(r, snap.CensusSnapshots, metrics.MethodADCTimesDays),
		ABTStarts:                  s.calculator.ABTStarts(snap.AntibioticCourses, r),
		TotalDaysOfTherapy:         totalDOT,
		AntibioticUtilizationRatio: s.calculator.AntibioticUtilizationRatio(float64(totalDOT), float64(residentDays)),
		InfectionRatePer1000:       s.calculator.InfectionRatePer1000ResidentDays(snap.IPCases, r, float64(residentDays)),

		Trend:        forecast.AnalyzeTrend(values),
		Forecast:     forecast.GenerateForecast(series, s.config.Surveillance.ForecastDaysAhead, s.config.Surveillance.ConfidenceMultiplier),
		Seasonal:     seasonal,
		OutbreakRisk: forecast.CalculateOutbreakRisk(casesByType, casesByUnit, seasonal.Multiplier),

		GeneratedAt: time.Now(),
	}

	if err := s.repo.Save(ctx, facilityID, snap); err != nil {
		s.logger.WithError(err).WithField("facility_id", facilityID).Error("Failed to save snapshot after report generation")
	}

	s.recordReport(facilityID, "success", started)
	return report, nil
}

// ExportSurveillanceRows builds per-case export rows for the range and
// redacts them under the given profile. Callers must resolve the profile
// from a validated capability token; this method assumes the profile is
// already authorized.
func (s *Service) ExportSurveillanceRows(ctx context.Context, facilityID string, r dateutil.DateRange, profile redaction.Profile) ([]map[string]interface{}, error) {
	snap, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		s.recordExport(string(profile), "error")
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var rows []map[string]interface{}
	for _, c := range snap.IPCases {
		if c == nil {
			continue
		}
		onset, err := dateutil.ToCalendarDate(c.OnsetDate)
		if err != nil || !r.Contains(onset) {
			continue
		}

		row := map[string]interface{}{
			"case_id":        c.ID,
			"infection_type": c.InfectionType,
			"protocol":       c.Protocol,
			"unit":           c.Unit,
			"onset_date":     c.OnsetDate,
			"status":         string(c.Status),
		}
		if res := s.lookupResident(snap, c.ResidentID, c.MRN); res != nil {
			row["name"] = res.Name
			row["mrn"] = res.MRN
			row["dob"] = res.DOB
			row["room"] = res.Room
			s.logger.PHIAccess(string(profile), res.ResidentID, "export", true)
		}
		rows = append(rows, row)
	}

	redacted := redaction.RedactExportRows(rows, profile)

	s.logger.Audit("export", "redacted_export", facilityID, true, map[string]interface{}{
		"profile": string(profile),
		"rows":    len(redacted),
	})
	s.recordExport(string(profile), "success")
	return redacted, nil
}

// RecordWorkflowMetric appends a workflow event to the facility snapshot
// under the retention cap and saves it back.
func (s *Service) RecordWorkflowMetric(ctx context.Context, facilityID string, metric *types.WorkflowMetric) error {
	snap, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := s.recorder.Persist(snap, metric); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, facilityID, snap); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// WorkflowEfficiency computes efficiency statistics over the facility's
// stored workflow metrics.
func (s *Service) WorkflowEfficiency(ctx context.Context, facilityID string) (workflow.EfficiencyReport, error) {
	snap, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		return workflow.EfficiencyReport{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return s.recorder.ComputeEfficiency(snap.WorkflowMetrics), nil
}

// TransitionOutbreak advances an outbreak's lifecycle state and persists the
// snapshot. Resolved outbreaks are terminal; the transition engine rejects
// resurrection attempts.
func (s *Service) TransitionOutbreak(ctx context.Context, facilityID, outbreakID string, target types.OutbreakStatus, now time.Time) (*types.Outbreak, error) {
	snap, err := s.repo.Load(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var current *types.Outbreak
	idx := -1
	for i, o := range snap.Outbreaks {
		if o == nil {
			continue
		}
		if o.ID == outbreakID {
			current = o
			idx = i
			break
		}
	}
	if current == nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("outbreak %s not found", outbreakID))
	}

	updated, err := outbreak.Transition(current, target, now)
	if err != nil {
		return nil, err
	}
	snap.Outbreaks[idx] = updated

	if err := s.repo.Save(ctx, facilityID, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Audit("outbreak", "transition", outbreakID, true, map[string]interface{}{
		"from": string(current.Status),
		"to":   string(target),
	})
	return updated, nil
}

// Health reports service liveness for the health endpoint.
func (s *Service) Health(ctx context.Context) map[string]string {
	return map[string]string{
		"status":  "healthy",
		"service": "surveillance-service",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
}

// dailyCaseSeries turns IP-case onsets into a per-day count series over the
// range. Days without onsets appear as zeros so trend math sees the full
// calendar.
func (s *Service) dailyCaseSeries(cases []*types.IPCase, r dateutil.DateRange) []forecast.Observation {
	counts := make(map[string]float64)
	for _, c := range cases {
		if c == nil {
			continue
		}
		onset, err := dateutil.ToCalendarDate(c.OnsetDate)
		if err != nil || !r.Contains(onset) {
			continue
		}
		counts[onset.Format(dateutil.ISODate)]++
	}

	days := dateutil.EnumerateDays(r)
	series := make([]forecast.Observation, 0, len(days))
	for _, day := range days {
		series = append(series, forecast.Observation{Date: day, Value: counts[day]})
	}
	return series
}

// recentClusters tallies in-range IP cases by infection type and by unit for
// outbreak-risk scoring.
func (s *Service) recentClusters(cases []*types.IPCase, r dateutil.DateRange) (map[string]int, map[string]int) {
	byType := make(map[string]int)
	byUnit := make(map[string]int)
	for _, c := range cases {
		if c == nil {
			continue
		}
		onset, err := dateutil.ToCalendarDate(c.OnsetDate)
		if err != nil || !r.Contains(onset) {
			continue
		}
		if c.InfectionType != "" {
			byType[c.InfectionType]++
		}
		if c.Unit != "" {
			byUnit[c.Unit]++
		}
	}
	return byType, byUnit
}

// lookupResident resolves a case's resident by canonical id, falling back to
// the legacy MRN index for pre-migration records.
func (s *Service) lookupResident(snap *types.Snapshot, residentID, mrn string) *types.Resident {
	if residentID != "" {
		if res, ok := snap.ResidentsByID[residentID]; ok {
			return res
		}
	}
	if mrn != "" {
		if res, ok := snap.ResidentsByMRN[mrn]; ok {
			return res
		}
	}
	return nil
}

// logMigrations emits a compliance log entry for each migration that
// actually changed the facility snapshot.
func (s *Service) logMigrations(facilityID string, results []migration.Result) {
	for _, res := range results {
		if !res.Migrated {
			continue
		}
		s.logger.Compliance("snapshot_migrated", facilityID, map[string]interface{}{
			"residents_touched": res.ResidentsTouched,
			"records_touched":   res.RecordsTouched,
		})
	}
}

func (s *Service) recordReport(facility, status string, started time.Time) {
	if s.collector != nil {
		s.collector.RecordReport(facility, status, time.Since(started))
	}
}

func (s *Service) recordMigration(migrationName, status string) {
	if s.collector != nil {
		s.collector.RecordMigration(migrationName, status)
	}
}

func (s *Service) recordExport(profile, status string) {
	if s.collector != nil {
		s.collector.RecordExport(profile, status)
	}
}
