package track

import (
	"time"
)

// Identity is a confirmed entry in the re-ID bank. The descriptor is smoothed
// on every re-match so appearance can drift over a session without transient
// pose or lighting noise poisoning it.
type Identity struct {
	ID         int64
	Descriptor []float32
	FirstSeen  time.Time
	LastSeen   time.Time
	Name       string
}

// Candidate is a tentative identity pending temporal corroboration. It
// becomes an Identity once it is matched on enough consecutive deep frames,
// or is dropped if not corroborated quickly.
type Candidate struct {
	Descriptor []float32
	LastBox    Box
	Frames     int
	UpdatedAt  time.Time
}

// Bank is the identity memory plus candidate pool. It is owned by a single
// Tracker and accessed only from the frame-processing loop, so it carries no
// locking. Identity ids are strictly increasing and never reused, even after
// eviction: a person returning after TTL expiry gets a new id by design.
type Bank struct {
	identities []*Identity
	candidates []*Candidate
	nextID     int64

	identityTTL  time.Duration
	candidateTTL time.Duration
	threshold    float64
}

// NewBank creates an empty bank with the given eviction and matching policy.
func NewBank(cfg Config) *Bank {
	return &Bank{
		nextID:       1,
		identityTTL:  cfg.IdentityTTL,
		candidateTTL: cfg.CandidateTTL,
		threshold:    cfg.ReIDThreshold,
	}
}

// FindBestMatch returns the identity closest to the descriptor by cosine
// distance, if it is within the re-identification threshold. Safe on an
// empty bank.
func (b *Bank) FindBestMatch(descriptor []float32) (int64, float64, bool) {
	best := -1
	bestDist := 0.0
	for i, id := range b.identities {
		d := CosineDistance(descriptor, id.Descriptor)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best == -1 || bestDist > b.threshold {
		return 0, 0, false
	}
	return b.identities[best].ID, bestDist, true
}

// Refresh re-touches a matched identity: bumps lastSeen and smooths the
// stored descriptor toward the new observation (1 part new, 3 parts old).
func (b *Bank) Refresh(id int64, descriptor []float32, now time.Time) {
	ident := b.identity(id)
	if ident == nil {
		return
	}
	ident.LastSeen = now
	blend(ident.Descriptor, descriptor)
}

// EvictExpired removes identities past the identity TTL and candidates past
// the candidate TTL. Returns the ids of evicted identities so per-identity
// derived state (speaking counters) can be dropped with them.
func (b *Bank) EvictExpired(now time.Time) []int64 {
	kept := b.identities[:0]
	var evicted []int64
	for _, id := range b.identities {
		if now.Sub(id.LastSeen) < b.identityTTL {
			kept = append(kept, id)
		} else {
			evicted = append(evicted, id.ID)
		}
	}
	b.identities = kept

	keptC := b.candidates[:0]
	for _, c := range b.candidates {
		if now.Sub(c.UpdatedAt) < b.candidateTTL {
			keptC = append(keptC, c)
		}
	}
	b.candidates = keptC
	return evicted
}

// MatchCandidate finds the best candidate for a detection using a combined
// score: cosine distance minus a bonus proportional to bounding-box overlap
// with the candidate's last position. Spatial continuity disambiguates
// near-duplicate appearances. Returns nil when no candidate qualifies as a
// continuation (distance within threshold AND minimum IoU).
func (b *Bank) MatchCandidate(descriptor []float32, box Box) *Candidate {
	var best *Candidate
	bestScore := 0.0
	for _, c := range b.candidates {
		score := CosineDistance(descriptor, c.Descriptor) - IoU(c.LastBox, box)*candidateIoUBonus
		if best == nil || score < bestScore {
			best = c
			bestScore = score
		}
	}
	if best == nil {
		return nil
	}
	if CosineDistance(descriptor, best.Descriptor) > b.threshold || IoU(best.LastBox, box) <= candidateMinIoU {
		return nil
	}
	return best
}

// Corroborate records another sighting of a candidate: increments its frame
// count, smooths its descriptor, and replaces its last box.
func (b *Bank) Corroborate(c *Candidate, descriptor []float32, box Box, now time.Time) {
	c.Frames++
	c.UpdatedAt = now
	c.LastBox = box
	blend(c.Descriptor, descriptor)
}

// AddCandidate registers a brand-new tentative identity.
func (b *Bank) AddCandidate(descriptor []float32, box Box, now time.Time) {
	desc := make([]float32, len(descriptor))
	copy(desc, descriptor)
	b.candidates = append(b.candidates, &Candidate{
		Descriptor: desc,
		LastBox:    box,
		Frames:     1,
		UpdatedAt:  now,
	})
}

// Promote moves a candidate into the identity memory under a fresh id and
// removes it from the pool.
func (b *Bank) Promote(c *Candidate, now time.Time) int64 {
	id := b.nextID
	b.nextID++
	b.identities = append(b.identities, &Identity{
		ID:         id,
		Descriptor: c.Descriptor,
		FirstSeen:  now,
		LastSeen:   now,
	})
	for i, cand := range b.candidates {
		if cand == c {
			b.candidates = append(b.candidates[:i], b.candidates[i+1:]...)
			break
		}
	}
	return id
}

// AssignName sets a user-provided display name on an identity. Returns false
// if the id is unknown (evicted or never issued).
func (b *Bank) AssignName(id int64, name string) bool {
	ident := b.identity(id)
	if ident == nil {
		return false
	}
	ident.Name = name
	return true
}

// Name returns the display name assigned to an identity, if any.
func (b *Bank) Name(id int64) string {
	if ident := b.identity(id); ident != nil {
		return ident.Name
	}
	return ""
}

// Size returns the current confirmed-identity population.
func (b *Bank) Size() int {
	return len(b.identities)
}

// Identities returns a snapshot copy of the confirmed identities, for
// read-only display and archival.
func (b *Bank) Identities() []Identity {
	out := make([]Identity, 0, len(b.identities))
	for _, id := range b.identities {
		desc := make([]float32, len(id.Descriptor))
		copy(desc, id.Descriptor)
		out = append(out, Identity{ID: id.ID, Descriptor: desc, FirstSeen: id.FirstSeen, LastSeen: id.LastSeen, Name: id.Name})
	}
	return out
}

// Reset clears all identities and candidates. The id counter is NOT reset:
// ids stay unique across a session even after a manual reset.
func (b *Bank) Reset() {
	b.identities = nil
	b.candidates = nil
}

func (b *Bank) identity(id int64) *Identity {
	for _, ident := range b.identities {
		if ident.ID == id {
			return ident
		}
	}
	return nil
}

// blend smooths dst toward src with a fixed 3:1 exponential moving average.
func blend(dst, src []float32) {
	if len(dst) != len(src) {
		return
	}
	for i := range dst {
		dst[i] = (dst[i]*(descriptorBlend-1) + src[i]) / descriptorBlend
	}
}
