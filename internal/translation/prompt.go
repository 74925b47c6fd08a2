package translation

import (
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/snonux/schemetrans/internal/table"
)

// BuildPrompt serializes the translatable fields of rows and wraps them in
// the instruction sent to the model
func BuildPrompt(rows []table.Record, fields []string, langName string) (string, error) {
	payload := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		item := make(map[string]string, len(fields))
		for _, f := range fields {
			item[f] = row[f]
		}
		payload = append(payload, item)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode batch: %w", err)
	}

	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = fmt.Sprintf("%q", f)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the values of the following %d government scheme records from English to %s.\n", len(rows), langName)
	fmt.Fprintf(&sb, "Return ONLY a JSON array with exactly %d objects, in the same order as the input.\n", len(rows))
	fmt.Fprintf(&sb, "Each object must have exactly these keys: %s.\n", strings.Join(keys, ", "))
	sb.WriteString("Keep the keys in English and translate only the values. Do not add explanations.\n\n")
	sb.Write(data)
	return sb.String(), nil
}
