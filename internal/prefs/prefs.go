// Package prefs holds the user's jurisdiction preferences and law-category
// selection. Both are persisted as versioned JSON blobs; a blob that fails
// to decode (or carries an unknown schema version) reads back as absent,
// which sends the client through onboarding again instead of erroring.
package prefs

import "strings"

// SchemaVersion tags persisted blobs. Bump on incompatible shape changes;
// older readers treat unknown versions as absent.
const SchemaVersion = 1

// Jurisdiction is the onboarding selection scoping every chat request.
// Code values are stored as given; nothing validates them against a known
// list.
type Jurisdiction struct {
	SchemaVersion int    `json:"schema_version"`
	Language      string `json:"language"`
	Country       string `json:"country"`
	Province      string `json:"province"`
	CaseNumber    string `json:"case_number,omitempty"`
}

// IsSetupComplete reports whether onboarding produced a full jurisdiction:
// language, country and province all non-empty.
func (j Jurisdiction) IsSetupComplete() bool {
	return strings.TrimSpace(j.Language) != "" &&
		strings.TrimSpace(j.Country) != "" &&
		strings.TrimSpace(j.Province) != ""
}

// CategorySelection is the separately-tracked law-category choice that
// narrows which legal domain the assistant should address.
type CategorySelection struct {
	SchemaVersion int    `json:"schema_version"`
	Category      string `json:"category"`
	LawType       string `json:"law_type,omitempty"`
	Jurisdiction  string `json:"jurisdiction,omitempty"`
}
