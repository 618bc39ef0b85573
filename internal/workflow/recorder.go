// Package workflow persists UI workflow-metric events and derives
// process-efficiency statistics from them: median clicks per completed case
// and median time from case selection to save.
package workflow

import (
	"sort"

	"github.com/carewatch/stewardship/pkg/logger"
	"github.com/carewatch/stewardship/pkg/types"
)

// DefaultRetentionCap bounds the workflow-metrics store when no cap is
// configured.
const DefaultRetentionCap = 500

// Recorder appends workflow metrics to a snapshot under a retention cap and
// computes efficiency statistics from the stored events.
type Recorder struct {
	retentionCap int
	logger       *logger.Logger
}

// NewRecorder creates a new workflow metrics recorder
func NewRecorder(retentionCap int, log *logger.Logger) *Recorder {
	if retentionCap <= 0 {
		retentionCap = DefaultRetentionCap
	}
	return &Recorder{retentionCap: retentionCap, logger: log}
}

// Persist appends the metric to the snapshot's workflow-metrics store.
// When the store exceeds the retention cap the oldest entries are evicted
// first.
func (r *Recorder) Persist(snap *types.Snapshot, metric *types.WorkflowMetric) error {
	if snap == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "snapshot is nil", nil)
	}
	if metric == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "workflow metric is nil", nil)
	}

	if snap.WorkflowMetrics == nil {
		snap.WorkflowMetrics = []*types.WorkflowMetric{}
	}
	snap.WorkflowMetrics = append(snap.WorkflowMetrics, metric)

	if over := len(snap.WorkflowMetrics) - r.retentionCap; over > 0 {
		snap.WorkflowMetrics = snap.WorkflowMetrics[over:]
	}
	return nil
}

// EfficiencyReport summarizes process efficiency over completed cases. A
// case is completed once a save event has been recorded for it.
type EfficiencyReport struct {
	CompletedCases            int     `json:"completed_cases"`
	MedianClicksPerCase       float64 `json:"median_clicks_per_case"`
	MedianSelectToSaveSeconds float64 `json:"median_select_to_save_seconds"`

	ByCaseType map[string]CaseTypeEfficiency `json:"by_case_type,omitempty"`
}

// CaseTypeEfficiency is the per-case-type slice of the efficiency report.
type CaseTypeEfficiency struct {
	CompletedCases            int     `json:"completed_cases"`
	MedianClicksPerCase       float64 `json:"median_clicks_per_case"`
	MedianSelectToSaveSeconds float64 `json:"median_select_to_save_seconds"`
}

// ComputeEfficiency derives efficiency statistics from the stored events.
// Cases without a save event are in-flight and excluded; select-to-save
// latency is only measured for cases carrying both events.
func (r *Recorder) ComputeEfficiency(metrics []*types.WorkflowMetric) EfficiencyReport {
	type caseAgg struct {
		caseType string
		clicks   int
		selectAt *types.WorkflowMetric
		saveAt   *types.WorkflowMetric
	}

	byCase := make(map[string]*caseAgg)
	order := []string{}
	for _, m := range metrics {
		if m == nil || m.CaseID == "" {
			continue
		}
		agg, ok := byCase[m.CaseID]
		if !ok {
			agg = &caseAgg{caseType: m.CaseType}
			byCase[m.CaseID] = agg
			order = append(order, m.CaseID)
		}
		agg.clicks += m.Clicks
		switch m.Event {
		case types.WorkflowEventSelect:
			if agg.selectAt == nil {
				agg.selectAt = m
			}
		case types.WorkflowEventSave:
			if agg.saveAt == nil {
				agg.saveAt = m
			}
		}
	}

	var clicks []float64
	var latencies []float64
	typeClicks := make(map[string][]float64)
	typeLatencies := make(map[string][]float64)
	typeCompleted := make(map[string]int)
	completed := 0
	for _, caseID := range order {
		agg := byCase[caseID]
		if agg.saveAt == nil {
			continue
		}
		completed++
		typeCompleted[agg.caseType]++
		clicks = append(clicks, float64(agg.clicks))
		typeClicks[agg.caseType] = append(typeClicks[agg.caseType], float64(agg.clicks))
		if agg.selectAt != nil {
			latency := agg.saveAt.Timestamp.Sub(agg.selectAt.Timestamp).Seconds()
			latencies = append(latencies, latency)
			typeLatencies[agg.caseType] = append(typeLatencies[agg.caseType], latency)
		}
	}

	report := EfficiencyReport{
		CompletedCases:            completed,
		MedianClicksPerCase:       median(clicks),
		MedianSelectToSaveSeconds: median(latencies),
	}
	if len(typeCompleted) > 0 {
		report.ByCaseType = make(map[string]CaseTypeEfficiency, len(typeCompleted))
		for caseType, n := range typeCompleted {
			report.ByCaseType[caseType] = CaseTypeEfficiency{
				CompletedCases:            n,
				MedianClicksPerCase:       median(typeClicks[caseType]),
				MedianSelectToSaveSeconds: median(typeLatencies[caseType]),
			}
		}
	}
	return report
}

// median returns the middle value of the set, averaging the middle pair for
// even-length sets. Empty sets yield 0.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
