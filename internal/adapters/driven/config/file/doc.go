// Package file provides a TOML-backed driven.ConfigStore.
//
// Nested tables are exposed as dot-notation keys ("chunking.size") and
// written back as nested tables on save.
package file
