// Package checkpoint provides durable snapshots of harvest progress so an
// interrupted run can resume without re-fetching or skipping records.
//
// A checkpoint is two files: a JSON data file with the accumulated dump
// (submissions, users, problems) and a plain-text marker file holding the
// resumption offset. Save always lands the data file (atomically, via temp
// file and rename) before touching the marker, so whatever offset a later
// load observes is backed by a dump that contains at least that much data.
//
// A missing marker means a fresh start (offset 0). A positive marker with a
// missing data file is corrupt state and is reported as a checkpoint error.
package checkpoint
