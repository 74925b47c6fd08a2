package testutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// SchemeRows generates n scheme records with the default translatable
// fields filled with predictable English text
func SchemeRows(n int) [][]string {
	rows := [][]string{{"scheme_id", "scheme_name", "details", "benefits", "eligibility"}}
	for i := 0; i < n; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("S%03d", i),
			fmt.Sprintf("Scheme %d", i),
			fmt.Sprintf("Details of scheme %d", i),
			fmt.Sprintf("Benefits of scheme %d", i),
			fmt.Sprintf("Eligibility for scheme %d", i),
		})
	}
	return rows
}

// WriteCSV writes records to path and returns the path
func WriteCSV(t *testing.T, path string, records [][]string) string {
	t.Helper()

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("Failed to encode CSV: %v", err)
	}
	CreateTestFile(t, path, []byte(sb.String()))
	return path
}

// ReadCSV reads all records from path, header included
func ReadCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open CSV %s: %v", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV %s: %v", path, err)
	}
	return records
}

// AssertFileExists fails the test when path is missing
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file %s to exist: %v", path, err)
	}
}

// AssertFileNotExists fails the test when path is present
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected file %s to be absent (stat error: %v)", path, err)
	}
}

// AssertFileContains fails the test unless the file at path holds substring
func AssertFileContains(t *testing.T, path, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain %q, got %q", path, substring, content)
	}
}

// CaptureStdout returns everything f writes to os.Stdout
func CaptureStdout(t *testing.T, f func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}

	done := make(chan []byte)
	go func() {
		data, _ := io.ReadAll(r)
		done <- data
	}()

	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	f()
	w.Close()
	return string(<-done)
}
