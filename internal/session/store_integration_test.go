//go:build integration

package session

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/asterhq/aster/internal/chat"
	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/testutil"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	tdb := testutil.SetupTestDB(t)
	return NewStore(tdb.Pool, log.NewNop())
}

func TestStore_CreateAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "first question")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("Create returned nil UUID")
	}
	if created.Title != "first question" {
		t.Errorf("title = %q, want %q", created.Title, "first question")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != created.ID || got.Title != created.Title {
		t.Errorf("Get = %+v, want %+v", got, created)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := setupStore(t)

	if _, err := store.Get(context.Background(), uuid.New()); err != ErrNotFound {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestStore_AppendExchangeAndHistory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx, "math")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.AppendExchange(ctx, conv.ID, "what is 2+2?", "4"); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}
	if err := store.AppendExchange(ctx, conv.ID, "and doubled?", "8"); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	history, err := store.History(ctx, conv.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	want := []chat.Turn{
		{Role: chat.RoleUser, Content: "what is 2+2?"},
		{Role: chat.RoleModel, Content: "4"},
		{Role: chat.RoleUser, Content: "and doubled?"},
		{Role: chat.RoleModel, Content: "8"},
	}
	if len(history) != len(want) {
		t.Fatalf("got %d turns, want %d", len(history), len(want))
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("turn %d = %+v, want %+v", i, history[i], want[i])
		}
	}
}

func TestStore_AppendStopped(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx, "cut off")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.AppendStopped(ctx, conv.ID, "tell me a long story", "Once upon a"); err != nil {
		t.Fatalf("AppendStopped: %v", err)
	}

	history, err := store.History(ctx, conv.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d turns, want 2", len(history))
	}
	if !strings.HasSuffix(history[1].Content, StoppedAnnotation) {
		t.Errorf("model turn = %q, want annotated with %q", history[1].Content, StoppedAnnotation)
	}
	if !strings.HasPrefix(history[1].Content, "Once upon a") {
		t.Errorf("model turn = %q, want it to keep the partial content", history[1].Content)
	}
}

func TestStore_ListOrdersByActivity(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	older, err := store.Create(ctx, "older")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	newer, err := store.Create(ctx, "newer")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Activity on the older conversation should float it to the top.
	if err := store.AppendExchange(ctx, older.ID, "hi", "hello"); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	list, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d conversations, want 2", len(list))
	}
	if list[0].ID != older.ID {
		t.Errorf("list[0] = %s, want the recently active conversation %s", list[0].ID, older.ID)
	}
	if list[1].ID != newer.ID {
		t.Errorf("list[1] = %s, want %s", list[1].ID, newer.ID)
	}
}

func TestStore_DeleteCascades(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx, "doomed")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.AppendExchange(ctx, conv.ID, "hi", "hello"); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	if err := store.Delete(ctx, conv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, conv.ID); err != ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	history, err := store.History(ctx, conv.ID)
	if err != nil {
		t.Fatalf("History after delete: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("got %d orphaned messages, want 0", len(history))
	}

	if err := store.Delete(ctx, conv.ID); err != ErrNotFound {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
