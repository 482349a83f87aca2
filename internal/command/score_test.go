package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
	"github.com/npezzotti/go-classroom/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestScoreRecomputer(t *testing.T) {
	repo := newMemRepo()
	repo.comments["c1"] = database.Comment{Id: "c1", RoomId: "R", Body: "hi"}
	pub := acceptingPublisher()
	r := NewScoreRecomputer(testutil.TestLogger(t), repo, pub)
	votes := NewVoteHandler(repo, allowAll(), r)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx)
	}()

	assert.NoError(t, votes.Upvote(ctx, "u1", "c1"))
	assert.NoError(t, votes.Upvote(ctx, "u2", "c1"))

	assert.Eventually(t, func() bool {
		return len(pub.Published()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	wg.Wait()

	published := pub.Published()
	last := eventOf(published[1])
	assert.Equal(t, events.CommentPatched, last.Type)
	assert.Equal(t, "R.comment.moderator.stream", published[1].RoutingKey)
	assert.Equal(t, map[string]any{"score": 2}, last.Payload.(events.CommentPatchedPayload).Changes)

	// Signals after shutdown must not block.
	r.ScoreChanged("c1")
}

func TestScoreRecomputer_MissingComment(t *testing.T) {
	pub := acceptingPublisher()
	logger, buf := testutil.BufferLogger()
	r := NewScoreRecomputer(logger, newMemRepo(), pub)

	r.recompute(context.Background(), "gone")

	assert.Empty(t, pub.Published())
	assert.Contains(t, buf.String(), "gone")
}
