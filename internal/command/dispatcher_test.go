package command

import (
	"context"
	"errors"
	"testing"

	"github.com/npezzotti/go-classroom/internal/broker"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/events"
	"github.com/npezzotti/go-classroom/internal/permission"
	"github.com/npezzotti/go-classroom/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDispatcher_Handle(t *testing.T) {
	transient := errors.New("db down")

	tcases := []struct {
		name      string
		body      string
		err       error
		permanent bool
		wantErr   bool
	}{
		{name: "handled", body: `{"type":"Upvote","payload":{}}`},
		{name: "bad json", body: `{`, permanent: true, wantErr: true},
		{name: "unknown type", body: `{"type":"Nope","payload":{}}`, permanent: true, wantErr: true},
		{name: "domain error", body: `{"type":"Upvote","payload":{}}`, err: ErrForbidden, permanent: true, wantErr: true},
		{name: "transient error", body: `{"type":"Upvote","payload":{}}`, err: transient, wantErr: true},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDispatcher(testutil.TestLogger(t))
			d.Register(events.Upvote, func(ctx context.Context, in events.Inbound) error {
				return tc.err
			})

			err := d.Handle(context.Background(), []byte(tc.body))

			assert.Equal(t, tc.wantErr, err != nil)
			assert.Equal(t, tc.permanent, broker.IsPermanent(err))
		})
	}
}

func TestRegisterVoteCommands(t *testing.T) {
	repo := newMemRepo()
	notifier := &recordingNotifier{}
	var sawUser string
	perms := &userCapturingPerms{fakePerms: allowAll(), user: &sawUser}
	d := NewDispatcher(testutil.TestLogger(t))
	RegisterVoteCommands(d, NewVoteHandler(repo, perms, notifier))
	ctx := context.Background()

	assert.NoError(t, d.Handle(ctx, []byte(`{"type":"Downvote","payload":{"userId":"u1","commentId":"c1"}}`)))
	assert.Equal(t, "u1", sawUser)
	assert.Equal(t, -1, repo.voteRows("u1", "c1")[0].Vote)

	assert.NoError(t, d.Handle(ctx, []byte(`{"type":"ResetVote","payload":{"userId":"u1","commentId":"c1"}}`)))
	assert.Empty(t, repo.voteRows("u1", "c1"))
	assert.Equal(t, 2, notifier.count())

	err := d.Handle(ctx, []byte(`{"type":"Upvote","payload":"nope"}`))
	assert.True(t, broker.IsPermanent(err))
}

type userCapturingPerms struct {
	*fakePerms
	user *string
}

func (p *userCapturingPerms) CheckVoteOwnerPermission(ctx context.Context, v database.Vote) bool {
	*p.user, _ = permission.UserId(ctx)
	return p.fakePerms.CheckVoteOwnerPermission(ctx, v)
}

func TestRegisterRoomLifecycle(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	_, _ = repo.CreateComment(ctx, database.Comment{Id: "c1", RoomId: "A", Body: "x"})
	repo.settings["A"] = database.Settings{RoomId: "A", Readonly: true}
	pub := acceptingPublisher()
	logger := testutil.TestLogger(t)
	d := NewDispatcher(logger)
	RegisterRoomLifecycle(d,
		NewCommentHandler(logger, repo, &fakePerms{}, pub),
		NewSettingsHandler(logger, repo, &fakePerms{}, pub),
	)

	assert.NoError(t, d.Handle(ctx, []byte(`{"type":"RoomCreated","roomId":"N","payload":{"id":"N"}}`)))
	assert.Equal(t, DefaultSettings("N"), repo.settings["N"])

	assert.NoError(t, d.Handle(ctx, []byte(`{"type":"RoomDuplicated","payload":{"originalRoomId":"A","duplicatedRoomId":"B"}}`)))
	assert.True(t, repo.settings["B"].Readonly)

	repo.access["A"] = []database.RoomAccess{{RoomId: "A", UserId: "owner", Role: "CREATOR"}}
	assert.NoError(t, d.Handle(ctx, []byte(`{"type":"RoomDeleted","payload":{"id":"A"}}`)))
	assert.Empty(t, repo.comments)
	assert.NotContains(t, repo.access, "A", "expected the access list of the deleted room to be dropped")
	assert.Len(t, pub.Published(), 2)

	assert.True(t, broker.IsPermanent(d.Handle(ctx, []byte(`{"type":"RoomCreated","payload":{}}`))))
}

func TestRegisterFeedbackCommands(t *testing.T) {
	ctx := context.Background()
	repo := &database.MockCoreRepository{}
	repo.On("GetRoom", ctx, "R").Return(database.Room{Id: "R"}, nil)
	repo.On("DeleteFeedback", ctx, "R").Return(nil)
	pub := acceptingPublisher()
	d := NewDispatcher(testutil.TestLogger(t))
	RegisterFeedbackCommands(d, newFeedbackHandler(t, repo, &fakePerms{}, nil, pub))

	assert.NoError(t, d.Handle(ctx, []byte(`{"type":"ResetFeedback","roomId":"R","payload":{}}`)))
	assert.Equal(t, []events.Kind{events.FeedbackReset}, kindsOf(pub.Published()))

	err := d.Handle(ctx, []byte(`{"type":"CreateFeedback","roomId":"R","payload":{"userId":"u1","value":9}}`))
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, broker.IsPermanent(err))
}
