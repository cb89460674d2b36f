package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hacklabs/hwlib/pkg/logger"
)

func TestNewSessionStore_Defaults(t *testing.T) {
	s := NewSessionStore(nil, SessionConfig{
		AuthKey:       []byte("0123456789abcdef0123456789abcdef"),
		EncryptionKey: []byte("0123456789abcdef"),
	})
	if s.prefix != DefaultKeyPrefix {
		t.Errorf("prefix = %q, want %q", s.prefix, DefaultKeyPrefix)
	}
	if s.options.MaxAge != 7*24*60*60 {
		t.Errorf("MaxAge = %d, want one week", s.options.MaxAge)
	}
	if !s.options.HttpOnly || s.options.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie options: %+v", s.options)
	}
}

func TestNewSessionStore_NoCookie(t *testing.T) {
	s := NewSessionStore(nil, SessionConfig{
		AuthKey:       []byte("0123456789abcdef0123456789abcdef"),
		EncryptionKey: []byte("0123456789abcdef"),
	})
	sess, err := s.New(httptest.NewRequest(http.MethodGet, "/", nil), SessionName)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !sess.IsNew || len(sess.Values) != 0 {
		t.Fatalf("expected a fresh session, got %+v", sess)
	}
}

// Integration tests: skipped unless REDIS_URL is set.
func TestRedisStoreIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close() //nolint:errcheck

	store := NewSessionStore(client, SessionConfig{
		AuthKey:       []byte("0123456789abcdef0123456789abcdef"),
		EncryptionKey: []byte("0123456789abcdef"),
		KeyPrefix:     "hwlib_test:session:",
		MaxAge:        time.Minute,
	})

	rec := httptest.NewRecorder()
	if err := store.Issue(rec, httptest.NewRequest(http.MethodGet, "/", nil), User{ID: 42, Name: "grace"}); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}

	var got User
	h := RequireUser(store, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromCtx(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/hardware/reservations", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != (User{ID: 42, Name: "grace"}) {
		t.Fatalf("user = %+v", got)
	}

	sess, err := store.New(req, SessionName)
	if err != nil || sess.IsNew {
		t.Fatalf("reload: new=%v err=%v", sess.IsNew, err)
	}
	ttl, err := client.TTL(context.Background(), "hwlib_test:session:"+sess.ID).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v err=%v", ttl, err)
	}

	sess.Options.MaxAge = -1
	if err := store.Save(req, httptest.NewRecorder(), sess); err != nil {
		t.Fatalf("Save delete: %v", err)
	}
	n, err := client.Exists(context.Background(), "hwlib_test:session:"+sess.ID).Result()
	if err != nil || n != 0 {
		t.Fatalf("session key still present: n=%d err=%v", n, err)
	}
}
