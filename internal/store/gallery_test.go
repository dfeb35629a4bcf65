package store

import (
	"testing"
)

func storedIdentity(id int64, name string, descriptor []float32) StoredIdentity {
	return StoredIdentity{ID: id, SessionID: "s1", TrackID: id, Name: name, Descriptor: descriptor}
}

func TestGalleryEmpty(t *testing.T) {
	g := NewGallery()

	if g.Size() != 0 {
		t.Errorf("Size() = %d, want 0", g.Size())
	}
	matches, err := g.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches = %d, want 0 on an empty gallery", len(matches))
	}
}

func TestGalleryBuildAndSearch(t *testing.T) {
	g := NewGallery()
	err := g.Build([]StoredIdentity{
		storedIdentity(1, "alice", []float32{1, 0, 0}),
		storedIdentity(2, "bob", []float32{0, 1, 0}),
		storedIdentity(3, "carol", []float32{0.9, 0.1, 0}),
		storedIdentity(4, "", nil), // no descriptor, skipped
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if g.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", g.Size())
	}

	matches, err := g.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Identity.ID != 1 {
		t.Errorf("nearest = %d (%s), want 1", matches[0].Identity.ID, matches[0].Identity.Name)
	}
	if matches[0].Distance > 0.0001 {
		t.Errorf("nearest distance = %f, want ~0", matches[0].Distance)
	}
	if matches[1].Identity.ID != 3 {
		t.Errorf("second = %d, want 3", matches[1].Identity.ID)
	}
	if matches[1].Distance <= matches[0].Distance {
		t.Error("matches should be ordered nearest first")
	}
}

func TestGalleryAdd(t *testing.T) {
	g := NewGallery()

	if err := g.Add(storedIdentity(9, "", nil)); err == nil {
		t.Error("expected error for an identity without a descriptor")
	}

	if err := g.Add(storedIdentity(1, "alice", []float32{1, 0})); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := g.Add(storedIdentity(2, "bob", []float32{0, 1})); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if g.Size() != 2 {
		t.Errorf("Size() = %d, want 2", g.Size())
	}

	matches, err := g.Search([]float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].Identity.ID != 2 {
		t.Errorf("matches = %+v, want bob", matches)
	}
}

func TestGalleryRebuildReplaces(t *testing.T) {
	g := NewGallery()
	if err := g.Build([]StoredIdentity{storedIdentity(1, "alice", []float32{1, 0})}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := g.Build(nil); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if g.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after empty rebuild", g.Size())
	}
	matches, err := g.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches = %d, want 0", len(matches))
	}
}
