package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const structuredAnswer = `PROBLEM IDENTIFIED:
You received a speeding ticket under the Highway Traffic Act.

RECOMMENDED ACTIONS:
1. Request disclosure from the prosecutor's office.
2) Review the officer's notes for inconsistencies.
3. Consider an early resolution meeting.

LEGAL CITATIONS:
---
Highway Traffic Act, s. 128 (p. 12)
Provincial Offences Act, s. 5

ANSWER STATISTICS:
Confidence: 0.91
Chunks used: 4
`

func TestParse_AllSections(t *testing.T) {
	res := Parse(structuredAnswer)

	require.True(t, res.Structured)
	assert.Empty(t, res.Paragraphs)

	assert.Equal(t, []string{
		"You received a speeding ticket under the Highway Traffic Act.",
	}, res.Problem)

	// Ordinal prefixes are stripped, both "1." and "2)" styles.
	assert.Equal(t, []string{
		"Request disclosure from the prosecutor's office.",
		"Review the officer's notes for inconsistencies.",
		"Consider an early resolution meeting.",
	}, res.Actions)

	// The "---" divider is dropped.
	assert.Equal(t, []string{
		"Highway Traffic Act, s. 128 (p. 12)",
		"Provincial Offences Act, s. 5",
	}, res.Citations)

	assert.Equal(t, []string{
		"Confidence: 0.91",
		"Chunks used: 4",
	}, res.Stats)
}

func TestParse_MarkersAreCaseInsensitiveAndDecorated(t *testing.T) {
	res := Parse("### Problem Identified:\nsomething went wrong\n\n**Recommended Actions**\nfile an appeal")

	require.True(t, res.Structured)
	assert.Equal(t, []string{"something went wrong"}, res.Problem)
	assert.Equal(t, []string{"file an appeal"}, res.Actions)
}

func TestParse_NoMarkersFallsBackToParagraphs(t *testing.T) {
	text := "Demerit points are recorded against your licence.\n\nThey expire two years after the offence date."

	res := Parse(text)

	require.False(t, res.Structured)
	assert.Nil(t, res.Problem)
	assert.Nil(t, res.Actions)
	assert.Equal(t, []string{
		"Demerit points are recorded against your licence.",
		"They expire two years after the offence date.",
	}, res.Paragraphs)
}

func TestParse_EmptyText(t *testing.T) {
	res := Parse("")
	assert.False(t, res.Structured)
	assert.Empty(t, res.Paragraphs)
}

func TestParse_TextBeforeFirstMarkerIsIgnored(t *testing.T) {
	res := Parse("preamble chatter\nRECOMMENDED ACTIONS\ndo the thing")

	require.True(t, res.Structured)
	assert.Equal(t, []string{"do the thing"}, res.Actions)
	assert.Empty(t, res.Problem)
}

func TestParse_SectionsInUnusualOrderStillBucketed(t *testing.T) {
	res := Parse("LEGAL CITATIONS:\nSome Act, s. 1\nPROBLEM IDENTIFIED:\nlate filing")

	require.True(t, res.Structured)
	assert.Equal(t, []string{"Some Act, s. 1"}, res.Citations)
	assert.Equal(t, []string{"late filing"}, res.Problem)
}
