// Package loader transforms a harvested dump into a normalized SQLite
// schema (Users, Problems, Submissions) for analysis.
//
// Shaping rules:
//   - only submissions with status "finished" are loaded
//   - timestamps are normalized to YYYY-MM-DD HH:MM:SS
//   - time limits and runtimes are converted from seconds to milliseconds
//   - records missing required fields are skipped with a warning
//
// Inserts use INSERT OR IGNORE keyed on the primary key, so repeated loads
// of the same dump are no-ops.
package loader
