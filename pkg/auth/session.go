// Package auth reads the caller's identity from the session store shared
// with the identity service. That service issues sessions; this process
// only loads them and slides their expiry, except in development and tests
// where Issue mints one directly.
//
// Session keys should be 32 or 64 bytes for HMAC authentication,
// and 16, 24, or 32 bytes for AES encryption. Generate production keys with:
//
//	openssl rand -base64 32
package auth

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is used when SessionConfig.KeyPrefix is empty.
const DefaultKeyPrefix = "session:"

// SessionConfig must match the identity service's settings for the same
// cookie to be readable here.
type SessionConfig struct {
	AuthKey       []byte
	EncryptionKey []byte
	KeyPrefix     string
	MaxAge        time.Duration
	Secure        bool
}

// RedisStore is a sessions.Store keeping values server-side in Redis under
// <prefix><id>. The cookie carries only the encrypted session ID.
type RedisStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	prefix  string
	options sessions.Options
}

var sessionIDEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewSessionStore returns a store reading sessions from client.
func NewSessionStore(client *redis.Client, sc SessionConfig) *RedisStore {
	prefix := sc.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	maxAge := sc.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(sc.AuthKey, sc.EncryptionKey),
		prefix: prefix,
		options: sessions.Options{
			Path:     "/",
			MaxAge:   int(maxAge / time.Second),
			HttpOnly: true,
			Secure:   sc.Secure,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the request's cached session, loading it on first use.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired session yields a fresh empty one; only a Redis outage is an error.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := s.options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, nil
	}

	found, err := s.load(r.Context(), id, session)
	if err != nil {
		return session, err
	}
	if found {
		session.ID = id
		session.IsNew = false
	}
	return session, nil
}

// Save writes session back to Redis and refreshes its cookie. A negative
// MaxAge deletes both.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(r.Context(), s.prefix+session.ID).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = sessionIDEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.client.Set(r.Context(), s.prefix+session.ID, buf.Bytes(), ttl).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Touch pushes the expiry of the request's session MaxAge into the future
// without rewriting its values.
func (s *RedisStore) Touch(ctx context.Context, session *sessions.Session) error {
	if session.IsNew || session.ID == "" {
		return nil
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.client.Expire(ctx, s.prefix+session.ID, ttl).Err(); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// Issue starts a session for u and sets its cookie on w.
func (s *RedisStore) Issue(w http.ResponseWriter, r *http.Request, u User) error {
	session, err := s.New(r, SessionName)
	if err != nil {
		return err
	}
	session.Values[SessionUserIDKey] = u.ID
	session.Values[SessionUserNameKey] = u.Name
	return s.Save(r, w, session)
}

func (s *RedisStore) load(ctx context.Context, id string, session *sessions.Session) (bool, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&session.Values); err != nil {
		return false, nil
	}
	return true, nil
}
