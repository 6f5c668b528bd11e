package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen_Drivers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, "", "", nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	s.Close()

	s, err = Open(ctx, "SQLite", filepath.Join(t.TempDir(), "pj.db"), nil)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	s.Close()

	if _, err := Open(ctx, "mongo", "", nil); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
