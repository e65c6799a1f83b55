package kilonova

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is the default submissions endpoint
	DefaultBaseURL = "https://kilonova.ro/api/submissions/get"

	// DefaultPageLimit is the number of submissions requested per page
	DefaultPageLimit = 50
)

// PageQuery describes one page request against the submissions endpoint
type PageQuery struct {
	Limit     int
	Offset    int
	ContestID int
	ProblemID int
}

// SubmissionListURL constructs the URL for one page of submissions.
// Ordering is fixed (descending by id) so that offsets remain stable
// pagination cursors across requests.
func SubmissionListURL(baseURL string, q PageQuery) string {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	params := url.Values{}
	params.Set("ascending", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("ordering", "id")
	if q.ContestID > 0 {
		params.Set("contest_id", strconv.Itoa(q.ContestID))
	}
	if q.ProblemID > 0 {
		params.Set("problem_id", strconv.Itoa(q.ProblemID))
	}
	params.Set("offset", strconv.Itoa(q.Offset))

	return fmt.Sprintf("%s?%s", baseURL, params.Encode())
}
