package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/npezzotti/go-classroom/internal/permission"
)

var errMissingToken = errors.New("missing token")

// errorHandler turns a handler panic into a 500 and closes the connection.
// http.ErrAbortHandler is re-raised so the server can abort the response.
func (s *server) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			s.log.Printf("panic: %v (%s %s)", err, r.Method, r.URL.Path)

			w.Header().Set("Connection", "close")
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
		}()

		next.ServeHTTP(w, r)
	})
}

// authenticate returns the user id carried by the request's token.
func (s *server) authenticate(r *http.Request) (string, error) {
	tokenString, err := tokenFromRequest(r)
	if err != nil {
		return "", errMissingToken
	}
	return s.extractUserIdFromToken(tokenString)
}

// authMiddleware rejects requests without a valid token and stores the
// caller's id on the request context for the permission layer.
func (s *server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := s.authenticate(r)
		if err != nil {
			if !errors.Is(err, errMissingToken) {
				s.log.Printf("rejected token for %s %s: %v", r.Method, r.URL.Path, err)
			}
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next(w, r.WithContext(permission.WithUserId(r.Context(), userId)))
	}
}
