// Package repository defines storage for analysis summaries.
//
// A stored summary is a snapshot: saving a new run replaces whatever the
// database held before, so one file always describes one analysis. The
// sqlite subpackage implements SummaryStore on top of modernc.org/sqlite,
// a cgo-free driver, with one table per summary section so that issues,
// edge loads and discovery logs can be queried with plain SQL.
package repository
