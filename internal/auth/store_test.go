package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestStoreValidatorAcceptsStaticUUID(t *testing.T) {
	uuid := "123e4567-e89b-12d3-a456-426614174000"
	store, err := NewStore([]Provider{NewStaticProvider(uuid)}, time.Minute, "", zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	validate := store.Validator(context.Background())
	if !validate(uuid) {
		t.Error("expected authorized UUID to validate")
	}
	if validate("00000000-0000-0000-0000-000000000000") {
		t.Error("expected unknown UUID to be rejected")
	}
}

func TestStoreValidatorCaseInsensitive(t *testing.T) {
	uuid := "123E4567-E89B-12D3-A456-426614174000"
	store, err := NewStore([]Provider{NewStaticProvider(uuid)}, time.Minute, "", zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	validate := store.Validator(context.Background())
	if !validate("123e4567-e89b-12d3-a456-426614174000") {
		t.Error("expected lowercase match against uppercase-configured UUID")
	}
}

func TestStoreRefreshClearsCache(t *testing.T) {
	uuid := "123e4567-e89b-12d3-a456-426614174000"
	store, err := NewStore([]Provider{NewStaticProvider(uuid)}, time.Minute, "", zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ctx := context.Background()
	first := store.Snapshot(ctx)
	if len(first) != 1 {
		t.Fatalf("got %d entries, want 1", len(first))
	}

	merged := store.Refresh(ctx)
	if merged["123e4567-e89b-12d3-a456-426614174000"] != "static" {
		t.Errorf("merged entry provider = %q, want static", merged[uuid])
	}
}

func TestStoreMergePriorityStaticWinsOverGeneric(t *testing.T) {
	uuid := "123e4567-e89b-12d3-a456-426614174000"
	// The generic provider serves the same UUID, so the merge has a conflict to resolve.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["` + uuid + `"]`))
	}))
	defer srv.Close()
	generic := NewGenericProvider("generic", srv.URL, 5)
	providers := []Provider{generic, NewStaticProvider(uuid)}

	store, err := NewStore(providers, time.Minute, "", zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	merged := store.Snapshot(context.Background())
	if merged[uuid] != "static" {
		t.Errorf("provider for %s = %q, want static (lower priority wins)", uuid, merged[uuid])
	}
}
