package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewatch/stewardship/pkg/logger"
	"github.com/carewatch/stewardship/pkg/types"
)

func rawFromJSON(t *testing.T, doc string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func TestNormalizeSnapshot(t *testing.T) {
	n := NewNormalizer(logger.New("ingest-test", "error"))

	t.Run("nil document rejected", func(t *testing.T) {
		_, err := n.NormalizeSnapshot(nil)
		assert.Error(t, err)
	})

	t.Run("empty document yields empty snapshot", func(t *testing.T) {
		snap, err := n.NormalizeSnapshot(map[string]interface{}{})
		require.NoError(t, err)
		assert.Empty(t, snap.ResidentsByMRN)
		assert.Empty(t, snap.AntibioticCourses)
	})

	t.Run("resolves start date aliases on courses", func(t *testing.T) {
		raw := rawFromJSON(t, `{
			"antibioticCourses": [
				{"id": "abt-1", "mrn": "MRN001", "medication": "cefepime", "startDate": "2026-01-01", "status": "active"},
				{"id": "abt-2", "mrn": "MRN001", "medication": "vancomycin", "start_date": "2026-01-05", "status": "completed"},
				{"id": "abt-3", "mrn": "MRN002", "medication": "cipro", "orderDate": "2026-01-10", "stopDate": "2026-01-14", "status": "active"}
			]
		}`)

		snap, err := n.NormalizeSnapshot(raw)
		require.NoError(t, err)
		require.Len(t, snap.AntibioticCourses, 3)
		assert.Equal(t, "2026-01-01", snap.AntibioticCourses[0].StartDate)
		assert.Equal(t, "2026-01-05", snap.AntibioticCourses[1].StartDate)
		assert.Equal(t, "2026-01-10", snap.AntibioticCourses[2].StartDate)
		assert.Equal(t, "2026-01-14", snap.AntibioticCourses[2].EndDate)
	})

	t.Run("resolves vaccine aliases", func(t *testing.T) {
		raw := rawFromJSON(t, `{
			"vaccinations": [
				{"id": "vax-1", "mrn": "MRN001", "vaccine": "influenza", "date": "2025-10-15"},
				{"id": "vax-2", "mrn": "MRN001", "vaccine_type": "covid-19", "givenDate": "2025-11-01"}
			]
		}`)

		snap, err := n.NormalizeSnapshot(raw)
		require.NoError(t, err)
		require.Len(t, snap.Vaccinations, 2)
		assert.Equal(t, "influenza", snap.Vaccinations[0].Vaccine)
		assert.Equal(t, "covid-19", snap.Vaccinations[1].Vaccine)
		assert.Equal(t, "2025-10-15", snap.Vaccinations[0].GivenDate)
	})

	t.Run("indexes residents by mrn and id", func(t *testing.T) {
		raw := rawFromJSON(t, `{
			"residentsByMrn": {
				"MRN001": {"mrn": "MRN001", "residentId": "res-1", "name": "Jane Doe", "activeOnCensus": true},
				"MRN002": {"name": "John Smith", "active": true}
			}
		}`)

		snap, err := n.NormalizeSnapshot(raw)
		require.NoError(t, err)
		require.Len(t, snap.ResidentsByMRN, 2)
		assert.Equal(t, "Jane Doe", snap.ResidentsByMRN["MRN001"].Name)
		// map key backfills a missing mrn field
		assert.Equal(t, "MRN002", snap.ResidentsByMRN["MRN002"].MRN)
		assert.True(t, snap.ResidentsByMRN["MRN002"].ActiveOnCensus)
		require.Contains(t, snap.ResidentsByID, "res-1")
		assert.Same(t, snap.ResidentsByMRN["MRN001"], snap.ResidentsByID["res-1"])
	})

	t.Run("carries records with missing optional fields", func(t *testing.T) {
		raw := rawFromJSON(t, `{
			"ipCases": [
				{"id": "ip-1", "mrn": "MRN001", "infection_type": "norovirus", "onsetDate": "2026-01-03", "status": "active"},
				{"id": "ip-2"}
			]
		}`)

		snap, err := n.NormalizeSnapshot(raw)
		require.NoError(t, err)
		require.Len(t, snap.IPCases, 2)
		assert.Equal(t, "norovirus", snap.IPCases[0].InfectionType)
		assert.Empty(t, snap.IPCases[1].OnsetDate)
	})

	t.Run("normalizes meta and census aliases", func(t *testing.T) {
		raw := rawFromJSON(t, `{
			"meta": {"schema_version": 2, "residentIdMigrated": false},
			"census_snapshots": [
				{"date": "2026-01-01", "census_count": 42},
				{"censusDate": "2026-01-02", "count": 43}
			]
		}`)

		snap, err := n.NormalizeSnapshot(raw)
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Meta.SchemaVersion)
		assert.False(t, snap.Meta.ResidentIDMigrated)
		require.Len(t, snap.CensusSnapshots, 2)
		assert.Equal(t, 42, snap.CensusSnapshots[0].CensusCount)
		assert.Equal(t, "2026-01-02", snap.CensusSnapshots[1].Date)
		assert.Equal(t, 43, snap.CensusSnapshots[1].CensusCount)
	})

	t.Run("normalizes outbreaks and workflow metrics", func(t *testing.T) {
		raw := rawFromJSON(t, `{
			"outbreaks": [
				{"id": "ob-1", "type": "norovirus", "status": "active", "startDate": "2026-01-10",
				 "affected_units": ["East Wing", "West Wing"], "caseCount": 6,
				 "resolvedAt": "2026-01-20T10:00:00Z"}
			],
			"workflow_metrics": [
				{"case_id": "case-1", "case_type": "infection", "event": "save", "clicks": 12,
				 "timestamp": "2026-01-15T09:30:00Z"}
			]
		}`)

		snap, err := n.NormalizeSnapshot(raw)
		require.NoError(t, err)
		require.Len(t, snap.Outbreaks, 1)
		ob := snap.Outbreaks[0]
		assert.Equal(t, types.OutbreakStatusActive, ob.Status)
		assert.Equal(t, []string{"East Wing", "West Wing"}, ob.AffectedUnits)
		require.NotNil(t, ob.ResolvedAt)
		assert.Equal(t, 2026, ob.ResolvedAt.Year())

		require.Len(t, snap.WorkflowMetrics, 1)
		m := snap.WorkflowMetrics[0]
		assert.Equal(t, types.WorkflowEventSave, m.Event)
		assert.Equal(t, 12, m.Clicks)
		assert.False(t, m.Timestamp.IsZero())
	})
}
