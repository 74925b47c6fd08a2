package translation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Row maps a translatable field name to its translated text
type Row map[string]string

var (
	errNotArray = errors.New("response is not a JSON array")

	fencePattern = regexp.MustCompile("(?s)```[ \t]*([A-Za-z0-9_+.-]+)?[ \t]*\r?\n?(.*?)```")
)

// ExtractJSON returns the JSON payload of a model reply. Models often wrap
// their answer in a markdown code fence: the last block tagged json wins,
// then the last fenced block of any kind. A reply without a closed fence is
// returned trimmed, minus a dangling opening fence line if there is one.
func ExtractJSON(text string) string {
	matches := fencePattern.FindAllStringSubmatch(text, -1)

	fallback := ""
	for i := len(matches) - 1; i >= 0; i-- {
		body := strings.TrimSpace(matches[i][2])
		if body == "" {
			continue
		}
		if strings.EqualFold(matches[i][1], "json") {
			return body
		}
		if fallback == "" {
			fallback = body
		}
	}
	if fallback != "" {
		return fallback
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
			return strings.TrimSpace(trimmed[nl+1:])
		}
		return ""
	}
	return trimmed
}

// ParseRows parses a JSON array of objects into rows. Elements that are not
// objects yield empty rows so positions stay aligned with the input batch.
func ParseRows(payload string) ([]Row, error) {
	if !gjson.Valid(payload) {
		return nil, errNotArray
	}

	result := gjson.Parse(payload)
	if !result.IsArray() {
		return nil, errNotArray
	}

	elems := result.Array()
	rows := make([]Row, 0, len(elems))
	for _, elem := range elems {
		row := Row{}
		if elem.IsObject() {
			elem.ForEach(func(key, value gjson.Result) bool {
				row[key.String()] = valueText(value)
				return true
			})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func valueText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}
