// Package processor drives a translation run. It loads the source table and
// checkpoint, walks the rows in fixed-size batches, translates every batch
// into each target language, merges the results and persists table and
// checkpoint after each fully translated batch. The first batch that cannot
// be translated halts the run without advancing the checkpoint, so a later
// run resumes exactly there.
package processor
