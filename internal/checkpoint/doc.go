// Package checkpoint persists the offset of the next untranslated row so an
// interrupted run resumes where the last fully translated batch ended.
//
// Two stores exist: a small JSON file ({"last_index": N}, the default) and a
// SQLite database which additionally keeps a ledger of completed batches.
package checkpoint
