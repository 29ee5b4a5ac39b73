package textmerge

import (
	"encoding/json"
	"fmt"
)

// Operation kinds. The wire values are part of the agent contract and
// must not change.
const (
	OpStrReplace = "str_replace"
	OpInsert     = "insert"
)

// Operation is one edit proposed by the agent: either a unique-substring
// replacement or a line insertion, discriminated by Op. It is a closed
// union — the batch runner rejects anything else instead of skipping it.
type Operation struct {
	Op         string `json:"op"`
	OldStr     string `json:"old_str,omitempty"`
	NewStr     string `json:"new_str,omitempty"`
	LineNumber int    `json:"line_number,omitempty"`
	Text       string `json:"text,omitempty"`
}

// MarshalJSON emits the exact wire shape for each variant, including
// empty strings (new_str may legitimately be "" to delete text).
func (o Operation) MarshalJSON() ([]byte, error) {
	switch o.Op {
	case OpStrReplace:
		return json.Marshal(struct {
			Op     string `json:"op"`
			OldStr string `json:"old_str"`
			NewStr string `json:"new_str"`
		}{o.Op, o.OldStr, o.NewStr})
	case OpInsert:
		return json.Marshal(struct {
			Op         string `json:"op"`
			LineNumber int    `json:"line_number"`
			Text       string `json:"text"`
		}{o.Op, o.LineNumber, o.Text})
	default:
		type raw Operation
		return json.Marshal(raw(o))
	}
}

// wireJSON renders the operation for error messages, falling back to a
// minimal tag when marshaling itself fails.
func (o Operation) wireJSON() string {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Sprintf(`{"op":%q}`, o.Op)
	}
	return string(data)
}

// batch is the structured-output envelope the agent produces.
type batch struct {
	Edits []Operation `json:"edits"`
}

// ParseBatch decodes an agent edit batch. It accepts either the full
// envelope {"edits": [...]} or a bare operation array, and rejects
// operations with an unknown or missing "op" discriminator up front so
// a malformed batch never reaches the document.
func ParseBatch(data []byte) ([]Operation, error) {
	var env batch
	if err := json.Unmarshal(data, &env); err != nil {
		var ops []Operation
		if arrErr := json.Unmarshal(data, &ops); arrErr != nil {
			return nil, fmt.Errorf("parsing edit batch: %w", err)
		}
		env.Edits = ops
	}

	for i, op := range env.Edits {
		switch op.Op {
		case OpStrReplace, OpInsert:
		default:
			return nil, fmt.Errorf("edit %d: unknown operation type %q", i+1, op.Op)
		}
	}

	return env.Edits, nil
}

// BatchResult is the outcome of a fully applied batch.
type BatchResult struct {
	Text         string `json:"text"`
	AppliedCount int    `json:"applied_count"`
}

// ApplyOperations applies ops strictly in order, each against the result
// of the previous one — a batch is one coherent agent turn, and a later
// edit may reference text produced by an earlier one. The first failing
// operation aborts the whole batch with an error naming the offending
// edit and the underlying message; the caller must not persist anything
// on failure. On success AppliedCount always equals len(ops).
func ApplyOperations(text string, ops []Operation) (BatchResult, error) {
	appliedCount := 0

	for _, op := range ops {
		var err error
		switch op.Op {
		case OpStrReplace:
			text, err = ApplyStrReplace(text, StrReplaceParams{
				OldStr: op.OldStr,
				NewStr: op.NewStr,
			})
		case OpInsert:
			text, err = ApplyInsert(text, InsertParams{
				LineNumber: op.LineNumber,
				Text:       op.Text,
			})
		default:
			err = fmt.Errorf("unknown operation type %q", op.Op)
		}
		if err != nil {
			return BatchResult{}, fmt.Errorf("failed to apply operation %s: %s", op.wireJSON(), err)
		}
		appliedCount++
	}

	return BatchResult{Text: text, AppliedCount: appliedCount}, nil
}
