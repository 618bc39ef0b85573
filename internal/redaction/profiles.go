// Package redaction applies role- and export-context-aware field redaction
// to rows bound for regulatory and surveyor exports.
package redaction

import "strings"

// RedactedToken replaces sensitive field values in redacted exports.
const RedactedToken = "REDACTED"

// Profile names a closed set of export redaction profiles.
type Profile string

const (
	// ProfileSurveyor is applied to rows exported for facility surveyors.
	ProfileSurveyor Profile = "surveyor"
	// ProfileStateReport is applied to rows exported in state regulatory
	// reports, which additionally drop room-level location detail.
	ProfileStateReport Profile = "state_report"
)

// transform mutates one field of a row copy in place.
type transform func(row map[string]interface{})

var profileTransforms = map[Profile][]transform{
	ProfileSurveyor: {
		redactField("mrn"),
		redactField("dob"),
		initialsField("name"),
	},
	ProfileStateReport: {
		redactField("mrn"),
		redactField("dob"),
		redactField("room"),
		initialsField("name"),
	},
}

// Known reports whether the profile belongs to the closed enumeration.
func Known(profile Profile) bool {
	_, ok := profileTransforms[profile]
	return ok
}

// RedactExportRow returns a copy of the row with the profile's field
// transforms applied. An unknown profile passes the row through unchanged:
// a fail-open the export paths must guard by resolving profiles before
// calling here.
func RedactExportRow(row map[string]interface{}, profile Profile) map[string]interface{} {
	transforms, ok := profileTransforms[profile]
	if !ok {
		return row
	}

	redacted := make(map[string]interface{}, len(row))
	for k, v := range row {
		redacted[k] = v
	}
	for _, apply := range transforms {
		apply(redacted)
	}
	return redacted
}

// RedactExportRows applies RedactExportRow to every row.
func RedactExportRows(rows []map[string]interface{}, profile Profile) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		out[i] = RedactExportRow(row, profile)
	}
	return out
}

func redactField(field string) transform {
	return func(row map[string]interface{}) {
		if _, present := row[field]; present {
			row[field] = RedactedToken
		}
	}
}

func initialsField(field string) transform {
	return func(row map[string]interface{}) {
		if name, ok := row[field].(string); ok {
			row[field] = Initials(name)
		}
	}
}

// Initials collapses a full name to its initials form: "Jane Doe" becomes
// "J. D.".
func Initials(name string) string {
	parts := strings.Fields(name)
	initials := make([]string, 0, len(parts))
	for _, part := range parts {
		r := []rune(part)
		initials = append(initials, strings.ToUpper(string(r[0]))+".")
	}
	return strings.Join(initials, " ")
}
