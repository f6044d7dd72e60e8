// Package templatestore keeps catalog and border templates in a SQLite
// database.
//
// Templates are drawing fragments addressed by kind and style name. They are
// stored gzip-compressed with a SHA-256 of the original bytes, and written
// back to disk with [Store.Materialize] when a command needs to insert them.
// The materialized file is named after the style, so the block the drafting
// application creates from it carries the style name too.
package templatestore
