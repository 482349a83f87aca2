package command

import (
	"context"
	"log"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
)

const scoreQueueSize = 256

// ScoreRecomputer re-reads a comment's vote sum whenever it is told the score
// changed and broadcasts it as a patch of the score field.
type ScoreRecomputer struct {
	repo    database.Repository
	sink    eventSink
	log     *log.Logger
	signals chan string
	done    chan struct{}
}

func NewScoreRecomputer(logger *log.Logger, repo database.Repository, pub broker.Publisher) *ScoreRecomputer {
	return &ScoreRecomputer{
		repo:    repo,
		sink:    eventSink{pub: pub, log: logger},
		log:     logger,
		signals: make(chan string, scoreQueueSize),
		done:    make(chan struct{}),
	}
}

// ScoreChanged queues a recompute. It does not block once Run has returned.
func (r *ScoreRecomputer) ScoreChanged(commentId string) {
	select {
	case r.signals <- commentId:
	case <-r.done:
	}
}

func (r *ScoreRecomputer) Run(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			return
		case commentId := <-r.signals:
			r.recompute(ctx, commentId)
		}
	}
}

func (r *ScoreRecomputer) recompute(ctx context.Context, commentId string) {
	c, err := r.repo.GetComment(ctx, commentId)
	if err != nil {
		r.log.Printf("recompute score of %q: %v", commentId, err)
		return
	}

	score, err := r.repo.SumVotes(ctx, commentId)
	if err != nil {
		r.log.Printf("sum votes of %q: %v", commentId, err)
		return
	}

	r.sink.broadcast(ctx, events.TopicFor(c.RoomId, c.Ack, events.CommentPatched), events.New(
		events.CommentPatched,
		c.RoomId,
		events.CommentPatchedPayload{Id: c.Id, Changes: map[string]any{"score": score}},
	))
}
