package migrator

import (
	"context"
	"os"
	"testing"
	"testing/fstest"
)

func TestUp_BadFS(t *testing.T) {
	files := fstest.MapFS{"00001_broken.sql": {Data: []byte("SELECT 1;")}}
	if _, err := Up(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", files); err == nil {
		t.Fatal("expected an error for a migration without goose annotations or an unreachable database")
	}
}

// Integration test: skipped unless TEST_DATABASE_URL is set.
func TestUpThenStatus(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	}
	ctx := context.Background()
	files := os.DirFS("../../migrations/hardware")

	if _, err := Up(ctx, url, files); err != nil {
		t.Fatalf("Up: %v", err)
	}
	again, err := Up(ctx, url, files)
	if err != nil || len(again) != 0 {
		t.Fatalf("second Up: ran=%v err=%v", again, err)
	}

	statuses, err := Status(ctx, url, files)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 migrations, got %+v", statuses)
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %d not applied", s.Version)
		}
	}
}
