package kilonova

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionListURL(t *testing.T) {
	tests := []struct {
		name  string
		query PageQuery
		want  map[string]string
	}{
		{
			name:  "defaults",
			query: PageQuery{},
			want: map[string]string{
				"ascending": "false",
				"limit":     "50",
				"ordering":  "id",
				"offset":    "0",
			},
		},
		{
			name:  "explicit limit and offset",
			query: PageQuery{Limit: 100, Offset: 250},
			want: map[string]string{
				"limit":  "100",
				"offset": "250",
			},
		},
		{
			name:  "contest filter",
			query: PageQuery{Limit: 50, Offset: 0, ContestID: 42},
			want: map[string]string{
				"contest_id": "42",
			},
		},
		{
			name:  "problem filter",
			query: PageQuery{Limit: 50, Offset: 50, ProblemID: 7},
			want: map[string]string{
				"problem_id": "7",
				"offset":     "50",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := SubmissionListURL(DefaultBaseURL, tt.query)
			assert.True(t, strings.HasPrefix(raw, DefaultBaseURL+"?"))

			parsed, err := url.Parse(raw)
			require.NoError(t, err)
			params := parsed.Query()

			for key, want := range tt.want {
				assert.Equal(t, want, params.Get(key), "parameter %s", key)
			}
		})
	}
}

func TestSubmissionListURLOmitsUnsetFilters(t *testing.T) {
	raw := SubmissionListURL(DefaultBaseURL, PageQuery{Limit: 50})
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	params := parsed.Query()
	assert.False(t, params.Has("contest_id"))
	assert.False(t, params.Has("problem_id"))
}
