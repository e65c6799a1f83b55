// Package harvest implements the resumable paginated harvest loop.
//
// The loop fetches pages strictly sequentially, merges each page into the
// accumulated dump, and checkpoints the full state whenever the submission
// count crosses a chunk boundary. An interrupt signal (observed via the
// Shutdown flag between fetches) triggers one final save before the loop
// stops, so a resumed run continues exactly where this one left off.
//
// Offsets advance by the fixed page limit per consumed page. An empty page
// is the drain condition: the loop saves and stops without advancing the
// offset further.
package harvest
