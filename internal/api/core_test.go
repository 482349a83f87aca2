package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/npezzotti/go-classroom/internal/command"
	"github.com/npezzotti/go-classroom/internal/config"
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/testutil"
	"github.com/npezzotti/go-classroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCoreApp(t *testing.T, fb *mockFeedback, moderator bool) *CoreApp {
	return newCoreAppWithRooms(t, &mockRooms{}, fb, moderator)
}

func newCoreAppWithRooms(t *testing.T, rooms *mockRooms, fb *mockFeedback, moderator bool) *CoreApp {
	return NewCoreApp(http.NewServeMux(), testutil.TestLogger(t), &database.MockCoreRepository{}, rooms, fb,
		staticModeration(moderator), &config.Config{SigningKey: testSigningKey})
}

func serveCore(t *testing.T, app *CoreApp, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := authorize(t, httptest.NewRequest(method, target, strings.NewReader(body)), "u1")
	app.Handler().ServeHTTP(rr, req)
	return rr
}

func TestCoreApp_feedback(t *testing.T) {
	fb := &mockFeedback{}
	defer fb.AssertExpectations(t)
	fb.On("Feedback", mock.Anything, "R").Return(types.Feedback{RoomId: "R", Values: []int{1, 0, 0, 2}}, nil).Once()
	fb.On("CreateFeedback", mock.Anything, "R", "u1", 3).Return(nil).Once()
	fb.On("CreateFeedback", mock.Anything, "R", "u1", 7).Return(command.ErrValidation).Once()
	app := newCoreApp(t, fb, false)

	rr := serveCore(t, app, http.MethodGet, "/api/rooms/R/feedback", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"roomId":"R","values":[1,0,0,2],"locked":false}`, rr.Body.String())

	rr = serveCore(t, app, http.MethodPost, "/api/rooms/R/feedback", `{"value":3}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serveCore(t, app, http.MethodPost, "/api/rooms/R/feedback", `{"value":7}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCoreApp_resetFeedback(t *testing.T) {
	t.Run("moderator", func(t *testing.T) {
		fb := &mockFeedback{}
		fb.On("ResetFeedback", mock.Anything, "R").Return(nil).Once()

		rr := serveCore(t, newCoreApp(t, fb, true), http.MethodDelete, "/api/rooms/R/feedback", "")

		assert.Equal(t, http.StatusNoContent, rr.Code)
		fb.AssertExpectations(t)
	})

	t.Run("participant", func(t *testing.T) {
		fb := &mockFeedback{}

		rr := serveCore(t, newCoreApp(t, fb, false), http.MethodDelete, "/api/rooms/R/feedback", "")

		assert.Equal(t, http.StatusForbidden, rr.Code)
		fb.AssertNotCalled(t, "ResetFeedback", mock.Anything, mock.Anything)
	})
}

func TestCoreApp_lockFeedback(t *testing.T) {
	fb := &mockFeedback{}
	defer fb.AssertExpectations(t)
	fb.On("SetFeedbackLocked", mock.Anything, "R", true).
		Return(database.Room{Id: "R", Rev: "2", OwnerId: "u1", FeedbackLocked: true}, nil).Once()
	fb.On("SetFeedbackLocked", mock.Anything, "S", true).
		Return(database.Room{}, command.ErrNotFound).Once()
	app := newCoreApp(t, fb, true)

	rr := serveCore(t, app, http.MethodPut, "/api/rooms/R/feedback/lock", `{"locked":true}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"feedbackLocked":true`)

	rr = serveCore(t, app, http.MethodPut, "/api/rooms/S/feedback/lock", `{"locked":true}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCoreApp_rooms(t *testing.T) {
	room := database.Room{Id: "R", Rev: "1", OwnerId: "u1", Moderators: []string{}}
	withMod := database.Room{Id: "R", Rev: "2", OwnerId: "u1", Moderators: []string{"m1"}}

	tcases := []struct {
		name         string
		method       string
		target       string
		prepare      func(m *mockRooms)
		expectedCode int
		expectedBody string
	}{
		{
			name:   "create",
			method: http.MethodPost,
			target: "/api/rooms",
			prepare: func(m *mockRooms) {
				m.On("CreateRoom", mock.Anything, "u1").Return(room, nil).Once()
			},
			expectedCode: http.StatusCreated,
			expectedBody: `"ownerId":"u1"`,
		},
		{
			name:   "get",
			method: http.MethodGet,
			target: "/api/rooms/R",
			prepare: func(m *mockRooms) {
				m.On("Room", mock.Anything, "R").Return(room, nil).Once()
			},
			expectedCode: http.StatusOK,
			expectedBody: `"id":"R"`,
		},
		{
			name:   "get unknown",
			method: http.MethodGet,
			target: "/api/rooms/S",
			prepare: func(m *mockRooms) {
				m.On("Room", mock.Anything, "S").Return(database.Room{}, command.ErrNotFound).Once()
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			target: "/api/rooms/R",
			prepare: func(m *mockRooms) {
				m.On("DeleteRoom", mock.Anything, "R").Return(nil).Once()
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name:   "delete by someone else",
			method: http.MethodDelete,
			target: "/api/rooms/R",
			prepare: func(m *mockRooms) {
				m.On("DeleteRoom", mock.Anything, "R").Return(command.ErrForbidden).Once()
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name:   "duplicate",
			method: http.MethodPost,
			target: "/api/rooms/R/duplicate",
			prepare: func(m *mockRooms) {
				m.On("DuplicateRoom", mock.Anything, "R").Return(database.Room{Id: "N", OwnerId: "u1"}, nil).Once()
			},
			expectedCode: http.StatusCreated,
			expectedBody: `"id":"N"`,
		},
		{
			name:   "add moderator",
			method: http.MethodPut,
			target: "/api/rooms/R/moderators/m1",
			prepare: func(m *mockRooms) {
				m.On("AddModerator", mock.Anything, "R", "m1").Return(withMod, nil).Once()
			},
			expectedCode: http.StatusOK,
			expectedBody: `"moderators":["m1"]`,
		},
		{
			name:   "remove moderator",
			method: http.MethodDelete,
			target: "/api/rooms/R/moderators/m1",
			prepare: func(m *mockRooms) {
				m.On("RemoveModerator", mock.Anything, "R", "m1").Return(room, nil).Once()
			},
			expectedCode: http.StatusOK,
			expectedBody: `"moderators":[]`,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			rooms := &mockRooms{}
			tc.prepare(rooms)
			app := newCoreAppWithRooms(t, rooms, &mockFeedback{}, false)

			rr := serveCore(t, app, tc.method, tc.target, "")

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody != "" {
				assert.Contains(t, rr.Body.String(), tc.expectedBody)
			}
			rooms.AssertExpectations(t)
		})
	}
}
