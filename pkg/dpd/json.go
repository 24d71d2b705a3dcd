package dpd

import (
	"encoding/json"
	"fmt"
)

type lineJSON struct {
	Granularity int64         `json:"granularity"`
	Start       int64         `json:"start"`
	P           []Probability `json:"p"`
}

type gridJSON struct {
	Granularity int64   `json:"granularity"`
	Inner       int64   `json:"inner_granularity"`
	Start       int64   `json:"start"`
	Lines       []*Line `json:"lines"`
}

// MarshalJSON encodes the line as its granularity, the raw lower bound of
// the first bucket and the dense bucket values.
func (l *Line) MarshalJSON() ([]byte, error) {
	lo, _ := l.span()
	p := l.buckets
	if p == nil {
		p = []Probability{}
	}
	return json.Marshal(lineJSON{Granularity: l.granularity, Start: lo, P: p})
}

// UnmarshalJSON decodes a line written by [Line.MarshalJSON].
func (l *Line) UnmarshalJSON(data []byte) error {
	var v lineJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Granularity <= 0 {
		return fmt.Errorf("dpd: invalid granularity %d", v.Granularity)
	}
	l.dense = newDense[Probability](v.Granularity)
	if len(v.P) > 0 {
		l.offset = floorDiv(v.Start, v.Granularity)
		l.buckets = v.P
	}
	return nil
}

// MarshalJSON encodes the grid with its nested lines; unconstructed
// buckets are encoded as null.
func (g *Grid) MarshalJSON() ([]byte, error) {
	lo, _ := g.span()
	lines := g.buckets
	if lines == nil {
		lines = []*Line{}
	}
	return json.Marshal(gridJSON{Granularity: g.granularity, Inner: g.inner, Start: lo, Lines: lines})
}

// UnmarshalJSON decodes a grid written by [Grid.MarshalJSON]. Every nested
// line must use the grid's inner granularity.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var v gridJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Granularity <= 0 || v.Inner <= 0 {
		return fmt.Errorf("dpd: invalid granularity %d/%d", v.Granularity, v.Inner)
	}
	for i, l := range v.Lines {
		if l != nil && l.granularity != v.Inner {
			return fmt.Errorf("dpd: line %d has granularity %d, want inner granularity %d", i, l.granularity, v.Inner)
		}
	}
	g.dense = newDense[*Line](v.Granularity)
	g.inner = v.Inner
	if len(v.Lines) > 0 {
		g.offset = floorDiv(v.Start, v.Granularity)
		g.buckets = v.Lines
	}
	return nil
}
