package kilonova

// SubmissionList represents the top-level response from the submissions endpoint
type SubmissionList struct {
	Status string   `json:"status"`
	Data   PageData `json:"data"`
}

// PageData contains one page of submissions plus the users and problems
// referenced by them
type PageData struct {
	Submissions []Submission       `json:"submissions"`
	Users       map[string]User    `json:"users"`
	Problems    map[string]Problem `json:"problems"`
	Count       int                `json:"count,omitempty"`
}

// Submission represents a single submission record
type Submission struct {
	ID             int     `json:"id"`
	CreatedAt      string  `json:"created_at"`
	UserID         int     `json:"user_id"`
	ProblemID      int     `json:"problem_id"`
	ContestID      *int    `json:"contest_id,omitempty"`
	Score          float64 `json:"score"`
	CompileError   bool    `json:"compile_error"`
	MaxTime        float64 `json:"max_time"`
	MaxMemory      int64   `json:"max_memory"`
	Language       string  `json:"language,omitempty"`
	CodeSize       int     `json:"code_size,omitempty"`
	ScorePrecision int     `json:"score_precision,omitempty"`
	SubmissionType string  `json:"submission_type,omitempty"`
	ICPCVerdict    *string `json:"icpc_verdict,omitempty"`
	Status         string  `json:"status"`
}

// User represents a user referenced by a submission
type User struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Problem represents problem metadata referenced by a submission
type Problem struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	TestName        string  `json:"test_name,omitempty"`
	DefaultPoints   float64 `json:"default_points"`
	Visible         bool    `json:"visible,omitempty"`
	VisibleTests    bool    `json:"visible_tests,omitempty"`
	TimeLimit       float64 `json:"time_limit"`
	MemoryLimit     int64   `json:"memory_limit"`
	SourceSize      *int    `json:"source_size,omitempty"`
	SourceCredits   string  `json:"source_credits"`
	ConsoleInput    bool    `json:"console_input,omitempty"`
	ScorePrecision  int     `json:"score_precision"`
	PublishedAt     *string `json:"published_at,omitempty"`
	ScoringStrategy string  `json:"scoring_strategy,omitempty"`
}

// Dump is the accumulated harvest state: the ordered submission sequence plus
// the users and problems seen so far. It is what the checkpoint data file holds.
type Dump struct {
	Submissions []Submission       `json:"submissions"`
	Users       map[string]User    `json:"users"`
	Problems    map[string]Problem `json:"problems"`
}

// NewDump creates an empty dump
func NewDump() *Dump {
	return &Dump{
		Submissions: make([]Submission, 0),
		Users:       make(map[string]User),
		Problems:    make(map[string]Problem),
	}
}

// Merge folds one page into the dump. Submissions are appended in arrival
// order; user and problem entries overwrite existing keys (the source data
// for a given id is stable, so last-write-wins is idempotent).
func (d *Dump) Merge(page *PageData) {
	d.Submissions = append(d.Submissions, page.Submissions...)
	if d.Users == nil {
		d.Users = make(map[string]User)
	}
	for id, u := range page.Users {
		d.Users[id] = u
	}
	if d.Problems == nil {
		d.Problems = make(map[string]Problem)
	}
	for id, p := range page.Problems {
		d.Problems[id] = p
	}
}

// Count returns the number of accumulated submissions
func (d *Dump) Count() int {
	return len(d.Submissions)
}
