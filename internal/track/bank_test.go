package track

import (
	"testing"
	"time"
)

func testBankConfig() Config {
	cfg := DefaultConfig()
	cfg.IdentityTTL = 60 * time.Second
	cfg.CandidateTTL = 2 * time.Second
	return cfg
}

func unitVec(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func promote(t *testing.T, b *Bank, desc []float32, now time.Time) int64 {
	t.Helper()
	b.AddCandidate(desc, Box{X: 0, Y: 0, Width: 10, Height: 10}, now)
	c := b.MatchCandidate(desc, Box{X: 0, Y: 0, Width: 10, Height: 10})
	if c == nil {
		t.Fatal("expected candidate match")
	}
	return b.Promote(c, now)
}

func TestFindBestMatch(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	if _, _, ok := b.FindBestMatch(unitVec(4, 0)); ok {
		t.Error("empty bank should not match")
	}

	id := promote(t, b, unitVec(4, 0), now)

	got, dist, ok := b.FindBestMatch(unitVec(4, 0))
	if !ok {
		t.Fatal("expected a match for identical descriptor")
	}
	if got != id {
		t.Errorf("matched id %d, want %d", got, id)
	}
	if dist > 0.0001 {
		t.Errorf("expected near-zero distance, got %f", dist)
	}

	// Orthogonal descriptor: cosine distance 1.0, far above the threshold.
	if _, _, ok := b.FindBestMatch(unitVec(4, 1)); ok {
		t.Error("orthogonal descriptor should not match")
	}
}

func TestFindBestMatchPicksClosest(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	idA := promote(t, b, []float32{1, 0}, now)
	idB := promote(t, b, []float32{0.8, 0.6}, now)

	got, _, ok := b.FindBestMatch([]float32{1, 0.05})
	if !ok {
		t.Fatal("expected a match")
	}
	if got != idA {
		t.Errorf("matched id %d, want %d (closest)", got, idA)
	}

	got, _, ok = b.FindBestMatch([]float32{0.75, 0.65})
	if !ok {
		t.Fatal("expected a match")
	}
	if got != idB {
		t.Errorf("matched id %d, want %d (closest)", got, idB)
	}
}

func TestRefreshBlendsDescriptor(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	id := promote(t, b, []float32{1, 0}, now)
	b.Refresh(id, []float32{0, 1}, now.Add(time.Second))

	ident := b.Identities()[0]
	// 3 parts old, 1 part new.
	if ident.Descriptor[0] != 0.75 || ident.Descriptor[1] != 0.25 {
		t.Errorf("expected blended descriptor [0.75 0.25], got %v", ident.Descriptor)
	}
	if !ident.LastSeen.Equal(now.Add(time.Second)) {
		t.Error("Refresh should bump LastSeen")
	}
}

func TestEvictExpired(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	idOld := promote(t, b, unitVec(4, 0), now)
	idFresh := promote(t, b, unitVec(4, 1), now)
	b.Refresh(idFresh, unitVec(4, 1), now.Add(59*time.Second))

	evicted := b.EvictExpired(now.Add(61 * time.Second))
	if len(evicted) != 1 || evicted[0] != idOld {
		t.Errorf("expected [%d] evicted, got %v", idOld, evicted)
	}
	if b.Size() != 1 {
		t.Errorf("expected 1 identity left, got %d", b.Size())
	}

	// A returning face gets a brand-new id, never a recycled one.
	idNew := promote(t, b, unitVec(4, 0), now.Add(62*time.Second))
	if idNew <= idFresh {
		t.Errorf("expected a fresh id after eviction, got %d", idNew)
	}
}

func TestEvictExpiredDropsStaleCandidates(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	b.AddCandidate(unitVec(4, 0), Box{Width: 10, Height: 10}, now)
	b.EvictExpired(now.Add(3 * time.Second))

	if c := b.MatchCandidate(unitVec(4, 0), Box{Width: 10, Height: 10}); c != nil {
		t.Error("stale candidate should have been evicted")
	}
}

func TestCandidateCorroboration(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()
	box := Box{X: 5, Y: 5, Width: 20, Height: 20}

	b.AddCandidate(unitVec(4, 0), box, now)

	c := b.MatchCandidate(unitVec(4, 0), box)
	if c == nil {
		t.Fatal("expected candidate match on overlapping box")
	}
	if c.Frames != 1 {
		t.Errorf("fresh candidate should have 1 frame, got %d", c.Frames)
	}

	b.Corroborate(c, unitVec(4, 0), box, now.Add(100*time.Millisecond))
	if c.Frames != 2 {
		t.Errorf("expected 2 frames after corroboration, got %d", c.Frames)
	}
}

func TestMatchCandidateRequiresOverlap(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	b.AddCandidate(unitVec(4, 0), Box{X: 0, Y: 0, Width: 10, Height: 10}, now)

	// Same appearance, disjoint position: not a continuation.
	if c := b.MatchCandidate(unitVec(4, 0), Box{X: 500, Y: 500, Width: 10, Height: 10}); c != nil {
		t.Error("disjoint box should not match a candidate")
	}
}

func TestMatchCandidateRequiresAppearance(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()
	box := Box{X: 0, Y: 0, Width: 10, Height: 10}

	b.AddCandidate(unitVec(4, 0), box, now)

	if c := b.MatchCandidate(unitVec(4, 1), box); c != nil {
		t.Error("orthogonal descriptor should not match a candidate")
	}
}

func TestPromoteRemovesCandidate(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()
	box := Box{X: 0, Y: 0, Width: 10, Height: 10}

	b.AddCandidate(unitVec(4, 0), box, now)
	c := b.MatchCandidate(unitVec(4, 0), box)
	id := b.Promote(c, now)

	if id != 1 {
		t.Errorf("first identity should get id 1, got %d", id)
	}
	if b.Size() != 1 {
		t.Errorf("expected 1 identity, got %d", b.Size())
	}
	if again := b.MatchCandidate(unitVec(4, 0), box); again != nil {
		t.Error("promoted candidate should leave the pool")
	}
}

func TestAssignNameAndCanonicalName(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	id := promote(t, b, unitVec(4, 0), now)

	if b.AssignName(99, "nobody") {
		t.Error("assigning a name to an unknown id should fail")
	}
	if !b.AssignName(id, "José") {
		t.Fatal("assigning a name to a known id should succeed")
	}
	if b.Name(id) != "José" {
		t.Errorf("expected name 'José', got %q", b.Name(id))
	}

	// Equivalent spellings resolve to the stored one.
	if got := b.CanonicalName("jose"); got != "José" {
		t.Errorf("CanonicalName(\"jose\") = %q, want \"José\"", got)
	}
	if got := b.CanonicalName("maria"); got != "maria" {
		t.Errorf("CanonicalName for a new name should pass through, got %q", got)
	}
}

func TestResetKeepsIDCounter(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	id1 := promote(t, b, unitVec(4, 0), now)
	b.Reset()

	if b.Size() != 0 {
		t.Errorf("expected empty bank after reset, got %d", b.Size())
	}

	id2 := promote(t, b, unitVec(4, 0), now)
	if id2 <= id1 {
		t.Errorf("ids must keep increasing across reset: got %d after %d", id2, id1)
	}
}

func TestIdentitiesReturnsCopies(t *testing.T) {
	b := NewBank(testBankConfig())
	now := time.Now()

	id := promote(t, b, []float32{1, 0}, now)

	snapshot := b.Identities()
	snapshot[0].Descriptor[0] = 42

	got, _, ok := b.FindBestMatch([]float32{1, 0})
	if !ok || got != id {
		t.Error("mutating a snapshot must not corrupt the bank")
	}
}
