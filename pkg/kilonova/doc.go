// Package kilonova provides a client for the Kilonova judge-platform
// submissions API and the data model for harvested dumps.
//
// The client fetches pages of the form
//
//	GET {base}?ascending=false&limit=L&ordering=id[&contest_id=C][&problem_id=P]&offset=O
//
// and decodes the {status, data: {submissions, users, problems}} envelope.
// Transient failures (network errors, timeouts, 429, 5xx) are retried with
// exponential backoff; malformed responses and 4xx errors are not.
//
// A Dump is the accumulated harvest state written to the checkpoint data
// file: the ordered submission sequence plus users and problems keyed by id.
package kilonova
