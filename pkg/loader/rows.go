package loader

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"subharvest/pkg/kilonova"
	"subharvest/pkg/logger"
)

// canonicalTimeFormat is the normalized timestamp form stored in the database
const canonicalTimeFormat = "2006-01-02 15:04:05"

// timestampLayouts are the accepted input layouts, tried in order
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UserRow is a shaped Users table row
type UserRow struct {
	ID          int
	Name        string
	DisplayName string
}

// ProblemRow is a shaped Problems table row. Time limits are converted from
// seconds to milliseconds.
type ProblemRow struct {
	ID              int
	Name            string
	TestName        *string
	DefaultPoints   int
	Visible         bool
	VisibleTests    bool
	TimeMs          float64
	MemoryLimit     int64
	SourceSize      *int
	SourceCredits   string
	ConsoleInput    bool
	ScorePrecision  int
	PublishedAt     *string
	ScoringStrategy *string
}

// SubmissionRow is a shaped Submissions table row. Only submissions with
// status "finished" are shaped; max_time is converted from seconds to
// milliseconds.
type SubmissionRow struct {
	ID             int
	CreatedAt      string
	UserID         int
	ProblemID      int
	ContestID      *int
	Score          int
	CompileError   bool
	MaxTimeMs      float64
	MaxMemoryBytes int64
	Language       *string
	CodeSize       int
	ScorePrecision int
	SubmissionType *string
	ICPCVerdict    *string
}

// ShapeUsers converts the dump's user map into table rows
func ShapeUsers(users map[string]kilonova.User) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for key, u := range users {
		id := u.ID
		if id == 0 {
			parsed, err := strconv.Atoi(key)
			if err != nil {
				logger.GetLogger().WarnWithFields("skipping user with invalid id", map[string]interface{}{
					"key": key,
				})
				continue
			}
			id = parsed
		}
		rows = append(rows, UserRow{
			ID:          id,
			Name:        u.Name,
			DisplayName: u.DisplayName,
		})
	}
	return rows
}

// ShapeProblems converts the dump's problem map into table rows. Records
// missing required fields are skipped with a warning.
func ShapeProblems(problems map[string]kilonova.Problem) []ProblemRow {
	rows := make([]ProblemRow, 0, len(problems))
	for key, p := range problems {
		id := p.ID
		if id == 0 {
			parsed, err := strconv.Atoi(key)
			if err != nil {
				logger.GetLogger().WarnWithFields("skipping problem with invalid id", map[string]interface{}{
					"key": key,
				})
				continue
			}
			id = parsed
		}
		if p.Name == "" {
			logger.GetLogger().WarnWithFields("skipping problem with missing name", map[string]interface{}{
				"problem_id": id,
			})
			continue
		}

		row := ProblemRow{
			ID:             id,
			Name:           p.Name,
			TestName:       optionalString(p.TestName),
			DefaultPoints:  int(p.DefaultPoints),
			Visible:        p.Visible,
			VisibleTests:   p.VisibleTests,
			TimeMs:         secondsToMillis(p.TimeLimit),
			MemoryLimit:    p.MemoryLimit,
			SourceSize:     p.SourceSize,
			SourceCredits:  p.SourceCredits,
			ConsoleInput:   p.ConsoleInput,
			ScorePrecision: p.ScorePrecision,
			PublishedAt:    nil,
			ScoringStrategy: optionalString(p.ScoringStrategy),
		}

		if p.PublishedAt != nil && *p.PublishedAt != "" {
			normalized, err := normalizeTimestamp(*p.PublishedAt)
			if err != nil {
				logger.GetLogger().WarnWithFields("skipping problem with invalid published_at", map[string]interface{}{
					"problem_id":   id,
					"published_at": *p.PublishedAt,
					"error":        err.Error(),
				})
				continue
			}
			row.PublishedAt = &normalized
		}

		rows = append(rows, row)
	}
	return rows
}

// ShapeSubmissions converts the dump's submission sequence into table rows.
// Only submissions with status "finished" are kept; records with an
// unparseable created_at are skipped with a warning.
func ShapeSubmissions(submissions []kilonova.Submission) []SubmissionRow {
	rows := make([]SubmissionRow, 0, len(submissions))
	for _, s := range submissions {
		if s.Status != "finished" {
			continue
		}

		createdAt, err := normalizeTimestamp(s.CreatedAt)
		if err != nil {
			logger.GetLogger().WarnWithFields("skipping submission with invalid created_at", map[string]interface{}{
				"submission_id": s.ID,
				"created_at":    s.CreatedAt,
				"error":         err.Error(),
			})
			continue
		}

		rows = append(rows, SubmissionRow{
			ID:             s.ID,
			CreatedAt:      createdAt,
			UserID:         s.UserID,
			ProblemID:      s.ProblemID,
			ContestID:      s.ContestID,
			Score:          int(s.Score),
			CompileError:   s.CompileError,
			MaxTimeMs:      secondsToMillis(s.MaxTime),
			MaxMemoryBytes: s.MaxMemory,
			Language:       optionalString(s.Language),
			CodeSize:       s.CodeSize,
			ScorePrecision: s.ScorePrecision,
			SubmissionType: optionalString(s.SubmissionType),
			ICPCVerdict:    s.ICPCVerdict,
		})
	}
	return rows
}

// normalizeTimestamp parses a timestamp in any accepted layout and formats
// it in the canonical YYYY-MM-DD HH:MM:SS form
func normalizeTimestamp(value string) (string, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(canonicalTimeFormat), nil
		}
	}
	return "", fmt.Errorf("unrecognized timestamp %q", value)
}

// secondsToMillis converts seconds to milliseconds, rounded to 2 decimals
func secondsToMillis(seconds float64) float64 {
	return math.Round(seconds*1000*100) / 100
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
