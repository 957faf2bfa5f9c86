package storage

import (
	"context"
	"errors"
	"testing"
)

func TestDiskBucketRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := NewDiskBucket(t.TempDir(), "/static/")
	if err != nil {
		t.Fatalf("NewDiskBucket failed: %v", err)
	}

	url, err := b.Put(ctx, "hero_images/abc.jpg", "image/jpeg", []byte("jpeg"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "/static/hero_images/abc.jpg" {
		t.Errorf("Expected /static/hero_images/abc.jpg, got %s", url)
	}

	data, err := b.Get(ctx, "hero_images/abc.jpg")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "jpeg" {
		t.Errorf("Expected jpeg, got %s", data)
	}

	if err := b.Delete(ctx, "hero_images/abc.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := b.Get(ctx, "hero_images/abc.jpg"); !errors.Is(err, ErrNotExist) {
		t.Errorf("Expected ErrNotExist after delete, got %v", err)
	}

	// deleting a missing object is not an error
	if err := b.Delete(ctx, "hero_images/abc.jpg"); err != nil {
		t.Errorf("Expected nil deleting missing object, got %v", err)
	}
}

func TestDiskBucketRejectsTraversal(t *testing.T) {
	b, err := NewDiskBucket(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewDiskBucket failed: %v", err)
	}

	names := []string{"../escape.jpg", "hero_images/../../escape.jpg", ""}
	for _, name := range names {
		if _, err := b.Put(context.Background(), name, "image/jpeg", []byte("x")); err == nil {
			t.Errorf("Expected error for object name %q", name)
		}
	}
}
