package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/sessions"

	"github.com/hacklabs/hwlib/pkg/httpx"
	"github.com/hacklabs/hwlib/pkg/logger"
)

const (
	SessionName        = "hwlib_session"
	SessionUserIDKey   = "user_id"
	SessionUserNameKey = "user_name"
)

var errNoUser = errors.New("session has no user_id")

// RequireUser is a chi middleware that enforces an authenticated session.
// It reads the session cookie, extracts the user, and injects it into the
// request context. Returns 401 Unauthorized if the session is missing,
// invalid, or lacks a usable user_id.
//
// After this middleware, handlers can safely call auth.UserFromCtx(r.Context()).
func RequireUser(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, session, err := userFromSession(store, r)
			if err != nil {
				log.WarnContext(r.Context(), "unauthenticated request", "error", err)
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			if t, ok := store.(toucher); ok {
				if err := t.Touch(r.Context(), session); err != nil {
					log.WarnContext(r.Context(), "session expiry not extended", "error", err)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// OptionalUser attaches the session user when there is one and lets
// anonymous requests through untouched.
func OptionalUser(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _, err := userFromSession(store, r)
			if err != nil {
				if !errors.Is(err, errNoUser) {
					log.DebugContext(r.Context(), "ignoring unusable session", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// toucher is implemented by stores with sliding expiry.
type toucher interface {
	Touch(ctx context.Context, session *sessions.Session) error
}

func userFromSession(store sessions.Store, r *http.Request) (User, *sessions.Session, error) {
	if store == nil {
		return User{}, nil, errNoUser
	}
	session, err := store.Get(r, SessionName)
	if err != nil {
		return User{}, nil, fmt.Errorf("invalid session cookie: %w", err)
	}

	raw, ok := session.Values[SessionUserIDKey]
	if !ok {
		return User{}, nil, errNoUser
	}
	id, err := parseUserID(raw)
	if err != nil {
		return User{}, nil, err
	}
	name, _ := session.Values[SessionUserNameKey].(string)
	return User{ID: id, Name: name}, session, nil
}

// parseUserID accepts the integer encodings the identity service has used.
func parseUserID(v any) (int64, error) {
	var id int64
	switch t := v.(type) {
	case int64:
		id = t
	case int:
		id = int64(t)
	case int32:
		id = int64(t)
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid user_id %q in session", t)
		}
		id = n
	default:
		return 0, fmt.Errorf("unsupported user_id type %T in session", v)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid user_id %d in session", id)
	}
	return id, nil
}
