// Package textmerge implements the deterministic merge engine for wiki
// entries edited by an LLM agent.
//
// The agent only sees a line-numbered rendering of the text, so every
// mutation goes through two narrow primitives: replace a provably unique
// substring, or insert a new line at an exact 1-based position. All
// functions here are pure — they take text in and return text out, with
// no knowledge of entries, tenants, or storage.
package textmerge

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult is the verdict on a proposed str_replace anchor.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	MatchCount int    `json:"match_count"`
	Error      string `json:"error,omitempty"`
}

// StrReplaceParams holds the input for a string replacement.
type StrReplaceParams struct {
	OldStr string `json:"old_str"`
	NewStr string `json:"new_str"`
}

// InsertParams holds the input for a line insertion.
type InsertParams struct {
	LineNumber int    `json:"line_number"`
	Text       string `json:"text"`
}

// View renders text (or a line sub-range) with 1-based line numbers for
// the agent. startLine and endLine of 0 or less mean "default": first
// and last line respectively.
//
// The output format — number right-aligned to 4 columns, then "| ", then
// the raw line — is what the agent reads to decide where to edit. It must
// stay byte-stable between view and edit calls.
func View(text string, startLine, endLine int) (string, error) {
	lines := strings.Split(text, "\n")

	if startLine <= 0 {
		startLine = 1
	}
	if endLine <= 0 {
		endLine = len(lines)
	}

	if startLine < 1 || startLine > len(lines) {
		return "", fmt.Errorf("Invalid startLine: %d. Text has %d lines.", startLine, len(lines))
	}
	if endLine < startLine || endLine > len(lines) {
		return "", fmt.Errorf("Invalid endLine: %d. Must be between %d and %d.", endLine, startLine, len(lines))
	}

	var b strings.Builder
	for i := startLine; i <= endLine; i++ {
		if i > startLine {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%4d| %s", i, lines[i-1])
	}
	return b.String(), nil
}

// ValidateStrReplace checks whether oldStr occurs exactly once in text.
// Matching is a literal substring comparison — whitespace- and
// newline-sensitive, no trimming, no regex. An agent-proposed replacement
// is only safe to apply automatically when its anchor is provably unique;
// ambiguity is surfaced as a correctable error, never guessed at.
func ValidateStrReplace(text, oldStr string) ValidationResult {
	matches := len(strings.Split(text, oldStr)) - 1

	if matches == 0 {
		return ValidationResult{
			Valid:      false,
			MatchCount: 0,
			Error:      "String not found in text",
		}
	}

	if matches > 1 {
		return ValidationResult{
			Valid:      false,
			MatchCount: matches,
			Error:      fmt.Sprintf("Multiple matches found (%d). Please provide more context to make the match unique.", matches),
		}
	}

	return ValidationResult{Valid: true, MatchCount: 1}
}

// ApplyStrReplace replaces the unique occurrence of OldStr with NewStr.
// On a validator rejection the returned error message is exactly the
// validator's Error string — callers surface it to the agent verbatim.
func ApplyStrReplace(text string, p StrReplaceParams) (string, error) {
	v := ValidateStrReplace(text, p.OldStr)
	if !v.Valid {
		return "", errors.New(v.Error)
	}
	return strings.Replace(text, p.OldStr, p.NewStr, 1), nil
}

// ApplyInsert inserts Text as a new line immediately before the current
// line LineNumber. LineNumber may be len(lines)+1 to append at the end.
// The inserted text is treated as a single element even if it contains
// newlines; those survive as literal characters through the rejoin.
//
// Inserting into empty text at line 1 yields Text + "\n" — the join over
// the original empty line keeps a trailing newline. Downstream consumers
// depend on that shape, so it is preserved as-is.
func ApplyInsert(text string, p InsertParams) (string, error) {
	lines := strings.Split(text, "\n")

	if p.LineNumber < 1 || p.LineNumber > len(lines)+1 {
		return "", fmt.Errorf("Invalid line number: %d. Text has %d lines.", p.LineNumber, len(lines))
	}

	idx := p.LineNumber - 1
	lines = append(lines[:idx], append([]string{p.Text}, lines[idx:]...)...)

	return strings.Join(lines, "\n"), nil
}
