package redaction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportRow() map[string]interface{} {
	return map[string]interface{}{
		"mrn":       "MRN001",
		"dob":       "1941-08-01",
		"name":      "Jane Doe",
		"unit":      "east-wing",
		"room":      "204B",
		"infection": "UTI",
	}
}

func TestRedactExportRow(t *testing.T) {
	t.Run("surveyor profile redacts identifiers and collapses name", func(t *testing.T) {
		result := RedactExportRow(exportRow(), ProfileSurveyor)

		assert.Equal(t, RedactedToken, result["mrn"])
		assert.Equal(t, RedactedToken, result["dob"])
		assert.Equal(t, "J. D.", result["name"])

		// Non-sensitive fields pass through untouched.
		assert.Equal(t, "east-wing", result["unit"])
		assert.Equal(t, "204B", result["room"])
		assert.Equal(t, "UTI", result["infection"])
	})

	t.Run("serialized output carries no raw identifiers", func(t *testing.T) {
		result := RedactExportRow(exportRow(), ProfileSurveyor)

		payload, err := json.Marshal(result)
		require.NoError(t, err)

		assert.NotContains(t, string(payload), "MRN001")
		assert.NotContains(t, string(payload), "1941-08-01")
		assert.NotContains(t, string(payload), "Jane Doe")
	})

	t.Run("state report profile also drops room detail", func(t *testing.T) {
		result := RedactExportRow(exportRow(), ProfileStateReport)

		assert.Equal(t, RedactedToken, result["room"])
		assert.Equal(t, RedactedToken, result["mrn"])
		assert.Equal(t, "J. D.", result["name"])
	})

	t.Run("input row is never mutated", func(t *testing.T) {
		row := exportRow()
		_ = RedactExportRow(row, ProfileSurveyor)

		assert.Equal(t, "MRN001", row["mrn"])
		assert.Equal(t, "Jane Doe", row["name"])
	})

	t.Run("unknown profile passes the row through unchanged", func(t *testing.T) {
		row := exportRow()
		result := RedactExportRow(row, Profile("facility-admin"))

		assert.Equal(t, row, result)
		assert.Equal(t, "MRN001", result["mrn"])
	})

	t.Run("fields absent from the row are not invented", func(t *testing.T) {
		result := RedactExportRow(map[string]interface{}{"name": "Jane Doe"}, ProfileSurveyor)

		assert.NotContains(t, result, "mrn")
		assert.NotContains(t, result, "dob")
	})
}

func TestRedactExportRows(t *testing.T) {
	rows := []map[string]interface{}{exportRow(), exportRow()}
	out := RedactExportRows(rows, ProfileSurveyor)

	require.Len(t, out, 2)
	for _, row := range out {
		assert.Equal(t, RedactedToken, row["mrn"])
	}
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "J. D.", Initials("Jane Doe"))
	assert.Equal(t, "J.", Initials("Jane"))
	assert.Equal(t, "M. J. W.", Initials("Mary Jane Watson"))
	assert.Equal(t, "J. D.", Initials("  jane   doe "))
	assert.Equal(t, "", Initials(""))
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(ProfileSurveyor))
	assert.True(t, Known(ProfileStateReport))
	assert.False(t, Known(Profile("anything-else")))
}
