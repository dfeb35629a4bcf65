package store

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

// galleryMaxNeighbors (M) is the maximum number of neighbors per HNSW node.
const galleryMaxNeighbors = 16

// Gallery is an in-memory HNSW index over stored identity descriptors. It
// answers "who does this face look like across past sessions" without a
// database round trip per frame.
type Gallery struct {
	graph     *hnsw.Graph[int64]
	idToEntry map[int64]*StoredIdentity
	mu        sync.RWMutex
}

// NewGallery creates an empty gallery.
func NewGallery() *Gallery {
	return &Gallery{
		idToEntry: make(map[int64]*StoredIdentity),
	}
}

// Build replaces the index contents with the given identities.
func (g *Gallery) Build(identities []StoredIdentity) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(identities) == 0 {
		g.graph = nil
		g.idToEntry = make(map[int64]*StoredIdentity)
		return nil
	}

	graph := hnsw.NewGraph[int64]()
	graph.M = galleryMaxNeighbors
	graph.Ml = 1.0 / float64(galleryMaxNeighbors)
	graph.Distance = hnsw.CosineDistance

	g.idToEntry = make(map[int64]*StoredIdentity, len(identities))
	for i := range identities {
		entry := &identities[i]
		if len(entry.Descriptor) == 0 {
			continue
		}
		graph.Add(hnsw.MakeNode(entry.ID, entry.Descriptor))
		g.idToEntry[entry.ID] = entry
	}

	g.graph = graph
	return nil
}

// Add inserts a single identity into the index.
func (g *Gallery) Add(identity StoredIdentity) error {
	if len(identity.Descriptor) == 0 {
		return errors.New("identity has no descriptor")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.graph == nil {
		graph := hnsw.NewGraph[int64]()
		graph.M = galleryMaxNeighbors
		graph.Ml = 1.0 / float64(galleryMaxNeighbors)
		graph.Distance = hnsw.CosineDistance
		g.graph = graph
	}

	g.graph.Add(hnsw.MakeNode(identity.ID, identity.Descriptor))
	g.idToEntry[identity.ID] = &identity
	return nil
}

// Search returns up to k closest identities with their cosine distances,
// nearest first.
func (g *Gallery) Search(descriptor []float32, k int) ([]Match, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.graph == nil {
		return nil, nil
	}

	neighbors := g.graph.Search(descriptor, k)
	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		entry, ok := g.idToEntry[n.Key]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Identity: *entry,
			Distance: float64(hnsw.CosineDistance(descriptor, n.Value)),
		})
	}
	return matches, nil
}

// Size returns the number of indexed identities.
func (g *Gallery) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.idToEntry)
}
