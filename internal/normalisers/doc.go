// Package normalisers holds the text normalisers applied to provider
// content before chunking. The canonical normaliser folds Unicode,
// collapses whitespace and redacts secrets so that content hashes only
// change when meaningful text changes.
package normalisers
