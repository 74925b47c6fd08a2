package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
	"unicode"
)

// Version is the schemetrans release version
const Version = "0.4.1"

// GenerateRunID creates a short identifier for an archived run based on
// timestamp and the input file name.
// Format: epochMillis_md5(input)[:8]
func GenerateRunID(input string) string {
	epochMillis := time.Now().UnixMilli()

	hash := md5.Sum([]byte(input))
	hashStr := hex.EncodeToString(hash[:])[:8]

	return fmt.Sprintf("%d_%s", epochMillis, hashStr)
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}

// isAlphaNumeric accepts letters and digits of any script, scheme names are
// often Devanagari.
func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
