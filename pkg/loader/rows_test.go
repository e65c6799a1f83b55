package loader

import (
	"testing"

	"subharvest/pkg/kilonova"
)

func TestShapeSubmissionsFiltersUnfinished(t *testing.T) {
	subs := []kilonova.Submission{
		{ID: 1, CreatedAt: "2024-03-01T10:00:00Z", Status: "finished"},
		{ID: 2, CreatedAt: "2024-03-01T10:01:00Z", Status: "working"},
		{ID: 3, CreatedAt: "2024-03-01T10:02:00Z", Status: "waiting"},
		{ID: 4, CreatedAt: "2024-03-01T10:03:00Z", Status: "finished"},
	}

	rows := ShapeSubmissions(subs)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != 1 || rows[1].ID != 4 {
		t.Errorf("Expected ids 1 and 4, got %d and %d", rows[0].ID, rows[1].ID)
	}
}

func TestShapeSubmissionsScoreTruncation(t *testing.T) {
	subs := []kilonova.Submission{
		{ID: 1, CreatedAt: "2024-03-01T10:00:00Z", Score: 99.75, Status: "finished"},
	}
	rows := ShapeSubmissions(subs)
	if rows[0].Score != 99 {
		t.Errorf("Expected truncated score 99, got %d", rows[0].Score)
	}
}

func TestShapeUsersParsesKeyFallback(t *testing.T) {
	users := map[string]kilonova.User{
		"7":   {Name: "alice"}, // id missing in the record, key fills it in
		"bad": {Name: "ghost"},
	}
	rows := ShapeUsers(users)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].ID != 7 {
		t.Errorf("Expected id 7 from map key, got %d", rows[0].ID)
	}
}

func TestShapeProblemsSkipsMissingName(t *testing.T) {
	problems := map[string]kilonova.Problem{
		"1": {ID: 1, Name: "sum", TimeLimit: 0.25},
		"2": {ID: 2}, // no name
	}
	rows := ShapeProblems(problems)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].TimeMs != 250 {
		t.Errorf("Expected 250ms time limit, got %v", rows[0].TimeMs)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"rfc3339 with millis", "2024-03-01T10:15:30.123Z", "2024-03-01 10:15:30", false},
		{"rfc3339", "2024-03-01T10:15:30Z", "2024-03-01 10:15:30", false},
		{"no zone", "2024-03-01T10:15:30", "2024-03-01 10:15:30", false},
		{"already canonical", "2024-03-01 10:15:30", "2024-03-01 10:15:30", false},
		{"garbage", "yesterday", "", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := normalizeTimestamp(test.input)
			if test.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", test.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeTimestamp(%q) failed: %v", test.input, err)
			}
			if got != test.want {
				t.Errorf("normalizeTimestamp(%q) = %q, expected %q", test.input, got, test.want)
			}
		})
	}
}

func TestSecondsToMillis(t *testing.T) {
	tests := []struct {
		seconds float64
		want    float64
	}{
		{0.1, 100},
		{0.1234567, 123.46},
		{1.5, 1500},
		{0, 0},
	}
	for _, test := range tests {
		if got := secondsToMillis(test.seconds); got != test.want {
			t.Errorf("secondsToMillis(%v) = %v, expected %v", test.seconds, got, test.want)
		}
	}
}
