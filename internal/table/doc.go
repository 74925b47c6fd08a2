// Package table reads and writes the CSV tables schemetrans works on. The
// whole table is held in memory; writes replace the file atomically.
package table
