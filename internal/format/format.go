// Package format parses the semi-structured answer text returned by the
// legal-answer backend into labeled display sections. It is a best-effort
// heuristic, not a grammar: anything that does not match the marker layout
// degrades to plain paragraphs instead of erroring.
package format

import (
	"regexp"
	"strings"
)

// Marker substrings the backend embeds in structured answers. Matching is
// case-insensitive substring containment, so decorated headings like
// "### PROBLEM IDENTIFIED:" still switch sections.
const (
	markerProblem   = "problem identified"
	markerActions   = "recommended actions"
	markerCitations = "legal citations"
	markerStats     = "answer statistics"
)

type section int

const (
	sectionNone section = iota
	sectionProblem
	sectionActions
	sectionCitations
	sectionStats
)

// Result is the outcome of parsing an answer. Exactly one variant is
// populated: when Structured is true the section buckets hold the lines
// between markers; otherwise Paragraphs holds the blank-line-separated
// fallback split.
type Result struct {
	Structured bool

	Problem   []string
	Actions   []string
	Citations []string
	Stats     []string

	Paragraphs []string
}

var ordinalPrefix = regexp.MustCompile(`^\s*\d+[.)]\s+`)

// Parse splits raw answer text into labeled sections. A line containing a
// marker switches the current section; subsequent non-empty, non-separator
// lines are appended to that section's bucket. Text with no markers at all
// is returned as unstructured paragraphs.
func Parse(text string) Result {
	lines := strings.Split(text, "\n")

	var res Result
	current := sectionNone

	for _, line := range lines {
		if s, ok := markerFor(line); ok {
			current = s
			res.Structured = true
			continue
		}
		if current == sectionNone {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isSeparator(trimmed) {
			continue
		}

		switch current {
		case sectionProblem:
			res.Problem = append(res.Problem, trimmed)
		case sectionActions:
			res.Actions = append(res.Actions, ordinalPrefix.ReplaceAllString(trimmed, ""))
		case sectionCitations:
			res.Citations = append(res.Citations, trimmed)
		case sectionStats:
			res.Stats = append(res.Stats, trimmed)
		}
	}

	if !res.Structured {
		res.Paragraphs = splitParagraphs(text)
	}
	return res
}

func markerFor(line string) (section, bool) {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, markerProblem):
		return sectionProblem, true
	case strings.Contains(l, markerActions):
		return sectionActions, true
	case strings.Contains(l, markerCitations):
		return sectionCitations, true
	case strings.Contains(l, markerStats):
		return sectionStats, true
	}
	return sectionNone, false
}

// isSeparator reports whether the line is a horizontal-rule style divider
// ("---", "===", "***", "___").
func isSeparator(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	first := rune(trimmed[0])
	switch first {
	case '-', '=', '*', '_':
	default:
		return false
	}
	for _, r := range trimmed {
		if r != first {
			return false
		}
	}
	return true
}

func splitParagraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		p := strings.TrimSpace(block)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
