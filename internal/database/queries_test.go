package database

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func Test_constraintError(t *testing.T) {
	other := errors.New("connection reset")

	tcases := []struct {
		name     string
		err      error
		expected error
	}{
		{
			name:     "missing referenced row",
			err:      &pq.Error{Code: foreignKeyViolation},
			expected: ErrNotFound,
		},
		{
			name:     "duplicate key",
			err:      &pq.Error{Code: uniqueViolation},
			expected: ErrConflict,
		},
		{
			name:     "other postgres error",
			err:      &pq.Error{Code: "40001"},
			expected: nil,
		},
		{
			name:     "not a postgres error",
			err:      other,
			expected: other,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			got := constraintError(tc.err)
			if tc.expected == nil {
				assert.Equal(t, tc.err, got)
				return
			}
			assert.ErrorIs(t, got, tc.expected)
		})
	}
}

func TestCommentSchema_VotesReferenceComments(t *testing.T) {
	raw, err := fs.ReadFile(migrationsFS, "migrations/"+CommentSchema+"/000001_init.up.sql")
	assert.NoError(t, err)

	up := string(raw)
	start := strings.Index(up, "CREATE TABLE IF NOT EXISTS votes")
	if assert.GreaterOrEqual(t, start, 0) {
		votes := up[start:]
		votes = votes[:strings.Index(votes, ");")]
		assert.Contains(t, votes, "comment_id TEXT NOT NULL REFERENCES comments (id) ON DELETE CASCADE")
		assert.Contains(t, votes, "UNIQUE (user_id, comment_id)")
	}
}
