package command

import (
	"context"
	"slices"
	"sync"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
	"github.com/stretchr/testify/mock"
)

type voteKey struct{ userId, commentId string }

type tokenKey struct{ roomId, commentId, userId string }

// memRepo is an in-memory database.Repository with the uniqueness rules of
// the Postgres schema. Methods not overridden panic.
type memRepo struct {
	database.Repository

	mu       sync.Mutex
	settings map[string]database.Settings
	comments map[string]database.Comment
	order    []string
	votes    map[voteKey]database.Vote
	tokens   map[tokenKey]database.BonusToken
	access   map[string][]database.RoomAccess
}

func newMemRepo() *memRepo {
	return &memRepo{
		settings: make(map[string]database.Settings),
		comments: make(map[string]database.Comment),
		votes:    make(map[voteKey]database.Vote),
		tokens:   make(map[tokenKey]database.BonusToken),
		access:   make(map[string][]database.RoomAccess),
	}
}

func (r *memRepo) GetSettings(ctx context.Context, roomId string) (database.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[roomId]
	if !ok {
		return database.Settings{}, database.ErrNotFound
	}
	return s, nil
}

func (r *memRepo) CreateSettings(ctx context.Context, s database.Settings) (database.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settings[s.RoomId]; ok {
		return database.Settings{}, database.ErrConflict
	}
	r.settings[s.RoomId] = s
	return s, nil
}

func (r *memRepo) UpdateSettings(ctx context.Context, s database.Settings) (database.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settings[s.RoomId]; !ok {
		return database.Settings{}, database.ErrNotFound
	}
	r.settings[s.RoomId] = s
	return s, nil
}

func (r *memRepo) GetComment(ctx context.Context, id string) (database.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return database.Comment{}, database.ErrNotFound
	}
	return c, nil
}

func (r *memRepo) CreateComment(ctx context.Context, c database.Comment) (database.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[c.Id] = c
	r.order = append(r.order, c.Id)
	return c, nil
}

func (r *memRepo) UpdateComment(ctx context.Context, c database.Comment) (database.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[c.Id]; !ok {
		return database.Comment{}, database.ErrNotFound
	}
	r.comments[c.Id] = c
	return c, nil
}

func (r *memRepo) DeleteComment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return database.ErrNotFound
	}
	delete(r.comments, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

func (r *memRepo) DeleteCommentsByRoom(ctx context.Context, roomId string) ([]database.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted []database.Comment
	var kept []string
	for _, id := range r.order {
		c := r.comments[id]
		if c.RoomId != roomId {
			kept = append(kept, id)
			continue
		}
		deleted = append(deleted, c)
		delete(r.comments, id)
	}
	r.order = kept
	return deleted, nil
}

func (r *memRepo) DeleteRoomAccess(ctx context.Context, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.access, roomId)
	return nil
}

func (r *memRepo) CountAckedComments(ctx context.Context, roomIds []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, c := range r.comments {
		if c.Ack && slices.Contains(roomIds, c.RoomId) {
			counts[c.RoomId]++
		}
	}
	return counts, nil
}

func (r *memRepo) UpsertVote(ctx context.Context, v database.Vote) (database.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := voteKey{v.UserId, v.CommentId}
	if existing, ok := r.votes[key]; ok {
		existing.Vote = v.Vote
		r.votes[key] = existing
		return existing, nil
	}
	r.votes[key] = v
	return v, nil
}

func (r *memRepo) DeleteVote(ctx context.Context, userId, commentId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := voteKey{userId, commentId}
	_, ok := r.votes[key]
	delete(r.votes, key)
	return ok, nil
}

func (r *memRepo) SumVotes(ctx context.Context, commentId string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for k, v := range r.votes {
		if k.commentId == commentId {
			sum += v.Vote
		}
	}
	return sum, nil
}

func (r *memRepo) CreateBonusToken(ctx context.Context, t database.BonusToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tokenKey{t.RoomId, t.CommentId, t.UserId}
	if _, ok := r.tokens[key]; !ok {
		r.tokens[key] = t
	}
	return nil
}

func (r *memRepo) DeleteBonusToken(ctx context.Context, roomId, commentId, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, tokenKey{roomId, commentId, userId})
	return nil
}

func (r *memRepo) voteRows(userId, commentId string) []database.Vote {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []database.Vote
	for k, v := range r.votes {
		if k.userId == userId && k.commentId == commentId {
			out = append(out, v)
		}
	}
	return out
}

func (r *memRepo) tokenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// fakePerms answers every predicate with the matching field.
type fakePerms struct {
	owner, patch, update, delete, vote, editing, anyMod bool
}

func allowAll() *fakePerms {
	return &fakePerms{true, true, true, true, true, true, true}
}

func (p *fakePerms) CheckCommentOwnerPermission(ctx context.Context, c database.Comment) bool {
	return p.owner
}
func (p *fakePerms) CheckCommentPatchPermission(ctx context.Context, current database.Comment, changes map[string]any) bool {
	return p.patch
}
func (p *fakePerms) CheckCommentUpdatePermission(ctx context.Context, next, current database.Comment) bool {
	return p.update
}
func (p *fakePerms) CheckCommentDeletePermission(ctx context.Context, c database.Comment) bool {
	return p.delete
}
func (p *fakePerms) CheckVoteOwnerPermission(ctx context.Context, v database.Vote) bool {
	return p.vote
}
func (p *fakePerms) IsOwnerOrEditingModeratorForRoom(ctx context.Context, roomId string) bool {
	return p.editing
}
func (p *fakePerms) IsOwnerOrAnyTypeOfModeratorForRoom(ctx context.Context, roomId string) bool {
	return p.anyMod
}

type recordingNotifier struct {
	mu      sync.Mutex
	signals []string
}

func (n *recordingNotifier) ScoreChanged(commentId string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, commentId)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.signals)
}

func acceptingPublisher() *broker.MockPublisher {
	pub := &broker.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return pub
}

func eventOf(p broker.Published) events.Event {
	return p.Msg.(events.Event)
}

func kindsOf(published []broker.Published) []events.Kind {
	out := make([]events.Kind, 0, len(published))
	for _, p := range published {
		out = append(out, eventOf(p).Type)
	}
	return out
}
