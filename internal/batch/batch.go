// Package batch slices a table into the fixed-size contiguous batches that
// are translated and persisted as one unit.
package batch

import "codeberg.org/snonux/schemetrans/internal/table"

// Span is the half-open row range [Start, End)
type Span struct {
	Start int
	End   int
}

// Len returns the number of rows in the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Batch is a contiguous slice of records starting at row Start
type Batch struct {
	Span
	Rows []table.Record
}

// Empty reports whether the batch has no rows
func (b Batch) Empty() bool {
	return len(b.Rows) == 0
}

// Extract returns rows[start:min(start+size, len(rows))]. Out of range
// offsets and non-positive sizes give an empty batch instead of an error.
func Extract(rows []table.Record, start, size int) Batch {
	total := len(rows)
	start = clamp(start, 0, total)
	end := start
	if size > 0 {
		end = clamp(start+size, start, total)
	}

	return Batch{
		Span: Span{Start: start, End: end},
		Rows: rows[start:end],
	}
}

// Plan lists the spans still to be processed from start on
func Plan(total, start, size int) []Span {
	if size <= 0 {
		return nil
	}

	var spans []Span
	for i := clamp(start, 0, total); i < total; i += size {
		spans = append(spans, Span{Start: i, End: min(i+size, total)})
	}
	return spans
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
