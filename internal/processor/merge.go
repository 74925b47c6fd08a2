package processor

import (
	"codeberg.org/snonux/schemetrans/internal/config"
	"codeberg.org/snonux/schemetrans/internal/table"
	"codeberg.org/snonux/schemetrans/internal/translation"
)

// LangResult holds the translated rows of one batch for one language
type LangResult struct {
	Lang config.Language
	Rows []translation.Row
}

// Merge writes translated rows into the table starting at row start.
// Alignment is purely positional: the i-th returned row lands on table row
// start+i. Missing keys become empty cells; rows past the end of the table
// are dropped.
func Merge(t *table.Table, start int, fields []string, results []LangResult) {
	for _, res := range results {
		for i, row := range res.Rows {
			target := start + i
			if target >= t.Len() {
				break
			}
			for _, field := range fields {
				t.Set(target, table.ColumnName(field, res.Lang.Code), row[field])
			}
		}
	}
}
