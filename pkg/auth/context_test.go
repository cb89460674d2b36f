package auth

import (
	"context"
	"errors"
	"testing"
)

func TestWithUser_UserFromCtx(t *testing.T) {
	want := User{ID: 42, Name: "ada"}
	ctx := WithUser(context.Background(), want)

	got, err := UserFromCtx(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestUserFromCtx_EmptyContext(t *testing.T) {
	_, err := UserFromCtx(context.Background())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserFromCtx_ZeroID(t *testing.T) {
	ctx := WithUser(context.Background(), User{Name: "nobody"})
	_, err := UserFromCtx(ctx)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for zero id, got %v", err)
	}
}

func TestUserFromCtx_Isolation(t *testing.T) {
	ctx1 := WithUser(context.Background(), User{ID: 1})
	ctx2 := WithUser(context.Background(), User{ID: 2})

	got1, _ := UserFromCtx(ctx1)
	got2, _ := UserFromCtx(ctx2)

	if got1.ID != 1 || got2.ID != 2 {
		t.Fatalf("contexts leaked: %+v, %+v", got1, got2)
	}
}
