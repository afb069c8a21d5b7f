package memory

import (
	"context"
	"testing"
)

func TestBlobStorePutCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.Put(context.Background(), "html/page.html", "text/html", payload)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if uri != "memory://html/page.html" {
		t.Fatalf("unexpected uri %s", uri)
	}
	payload[0] = 'C'
	stored, err := store.Get(context.Background(), "html/page.html")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(stored) != "content" {
		t.Fatalf("expected stored copy to be immutable, got %q", stored)
	}
	if ct := store.ContentType("html/page.html"); ct != "text/html" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestBlobStoreExists(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	if store.Exists(context.Background(), "text/fp.txt") {
		t.Fatal("expected blob to be absent before Put")
	}
	if _, err := store.Put(context.Background(), "text/fp.txt", "text/plain", []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !store.Exists(context.Background(), "text/fp.txt") {
		t.Fatal("expected blob to exist after Put")
	}
	if store.Len() != 1 {
		t.Fatalf("exp 1 blob, got %d", store.Len())
	}
}

func TestBlobStoreGetMissing(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	if _, err := store.Get(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing blob")
	}
}

func TestBlobStoreRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	if _, err := store.Put(context.Background(), "", "text/plain", []byte("x")); err == nil {
		t.Fatal("expected error for empty path")
	}
}
