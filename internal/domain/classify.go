package domain

import (
	"encoding/json"
	"fmt"
)

// ColumnKind distinguishes the two column variants. A column carries either a
// fixed tag vocabulary or free-text instructions, never both.
type ColumnKind int

const (
	ColumnTagged ColumnKind = iota
	ColumnInstruction
)

// ColumnSpec is one output column of a classification request. Use
// TaggedColumn or InstructionColumn to construct; Kind decides which of Tags
// and Instructions is meaningful.
type ColumnSpec struct {
	Name         string
	Kind         ColumnKind
	Tags         []string
	Instructions string
}

func TaggedColumn(name string, tags []string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: ColumnTagged, Tags: tags}
}

func InstructionColumn(name, instructions string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: ColumnInstruction, Instructions: instructions}
}

type taggedColumnJSON struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

type instructionColumnJSON struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

func (c ColumnSpec) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ColumnTagged:
		tags := c.Tags
		if tags == nil {
			tags = []string{}
		}
		return json.Marshal(taggedColumnJSON{Name: c.Name, Tags: tags})
	case ColumnInstruction:
		return json.Marshal(instructionColumnJSON{Name: c.Name, Instructions: c.Instructions})
	default:
		return nil, fmt.Errorf("unknown column kind %d", c.Kind)
	}
}

// UnmarshalJSON decides the variant the same way the loader does: a non-empty
// tag set makes a tagged column, anything else is instruction-only.
func (c *ColumnSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name         string   `json:"name"`
		Tags         []string `json:"tags"`
		Instructions string   `json:"instructions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Tags) > 0 {
		*c = TaggedColumn(raw.Name, raw.Tags)
	} else {
		*c = InstructionColumn(raw.Name, raw.Instructions)
	}
	return nil
}

// ClassificationRequest is the normalized form of an uploaded sheet. Keyword
// order is preserved end-to-end; column order fixes the output column order
// and must not be reordered after load.
type ClassificationRequest struct {
	Keywords []string     `json:"keywords"`
	Brands   []string     `json:"brands"`
	Columns  []ColumnSpec `json:"columns"`
}

// SetInstructions patches the instruction text of an instruction-only column
// between load and classification. Tagged columns and out-of-range indexes
// are left untouched; empty text keeps whatever was there.
func (r *ClassificationRequest) SetInstructions(index int, text string) {
	if index < 0 || index >= len(r.Columns) {
		return
	}
	if r.Columns[index].Kind != ColumnInstruction || text == "" {
		return
	}
	r.Columns[index].Instructions = text
}

// WithKeywords returns a shallow copy of the request with the keyword list
// replaced, used to scope a prompt to one batch.
func (r ClassificationRequest) WithKeywords(keywords []string) ClassificationRequest {
	r.Keywords = keywords
	return r
}
