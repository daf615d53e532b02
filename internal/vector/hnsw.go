package vector

import (
	"container/heap"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// HNSWIndex is a hierarchical navigable small world graph built in one pass over a
// fixed set of vectors. Level assignment is seeded, so the same input always yields
// the same graph and the same search results. Identical vectors share one graph node.
type HNSWIndex struct {
	params     HNSWParams
	dimensions int
	size       int
	// vectors[node] is the vector of a graph node; members[node] lists the batch
	// positions holding that vector, ascending.
	vectors [][]float32
	members [][]int
	// links[node][layer] holds the neighbor nodes of node on layer.
	links    [][][]int
	entry    int
	maxLevel int
}

// NewHNSWIndex builds an HNSW graph over vectors. An empty batch yields an empty index.
func NewHNSWIndex(vectors [][]float32, params HNSWParams) (*HNSWIndex, error) {
	params = params.withDefaults()
	if params.Connections < 2 {
		return nil, fmt.Errorf("hnsw: connections must be at least 2, got %d", params.Connections)
	}
	if params.EfConstruction < 1 || params.EfSearch < 1 {
		return nil, fmt.Errorf("hnsw: ef_construction and ef_search must be positive")
	}
	dim, err := checkDimensions(vectors)
	if err != nil {
		return nil, fmt.Errorf("hnsw: %w", err)
	}

	h := &HNSWIndex{
		params:     params,
		dimensions: dim,
		size:       len(vectors),
		entry:      -1,
	}
	h.vectors, h.members = groupDuplicates(vectors)
	h.links = make([][][]int, len(h.vectors))

	rng := rand.New(rand.NewSource(params.Seed))
	levelMult := 1 / math.Log(float64(params.Connections))
	for node := range h.vectors {
		// 1-Float64 is in (0,1], keeping the logarithm finite.
		level := int(math.Floor(-math.Log(1-rng.Float64()) * levelMult))
		h.insert(node, level)
	}
	h.connect()
	return h, nil
}

// groupDuplicates collapses identical vectors into one copy each, in order of first
// appearance, together with the positions that hold them.
func groupDuplicates(vectors [][]float32) ([][]float32, [][]int) {
	var (
		unique  [][]float32
		members [][]int
	)
	seen := make(map[string]int, len(vectors))
	var buf []byte
	for id, vec := range vectors {
		buf = buf[:0]
		for _, x := range vec {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
		}
		if node, ok := seen[string(buf)]; ok {
			members[node] = append(members[node], id)
			continue
		}
		seen[string(buf)] = len(unique)
		unique = append(unique, append([]float32(nil), vec...))
		members = append(members, []int{id})
	}
	return unique, members
}

// maxLinks is the neighbor list capacity on a layer; the base layer is denser.
func (h *HNSWIndex) maxLinks(layer int) int {
	if layer == 0 {
		return 2 * h.params.Connections
	}
	return h.params.Connections
}

func (h *HNSWIndex) insert(node, level int) {
	h.links[node] = make([][]int, level+1)
	if h.entry < 0 {
		h.entry = node
		h.maxLevel = level
		return
	}

	query := h.vectors[node]
	entries := []candidate{{id: h.entry, dist: SquaredL2(query, h.vectors[h.entry])}}
	for layer := h.maxLevel; layer > level; layer-- {
		entries = h.searchLayer(query, entries, 1, layer)
	}
	top := level
	if h.maxLevel < top {
		top = h.maxLevel
	}
	for layer := top; layer >= 0; layer-- {
		found := h.searchLayer(query, entries, h.params.EfConstruction, layer)
		neighbors := h.selectNeighbors(found, h.params.Connections)
		h.links[node][layer] = neighbors
		for _, n := range neighbors {
			h.links[n][layer] = append(h.links[n][layer], node)
			if len(h.links[n][layer]) > h.maxLinks(layer) {
				h.shrink(n, layer)
			}
		}
		entries = found
	}
	if level > h.maxLevel {
		h.maxLevel = level
		h.entry = node
	}
}

// selectNeighbors picks up to m nodes from candidates sorted by ascending distance to
// a base vector. A candidate is taken only when it is closer to the base than to every
// node already taken, so links spread across directions instead of piling into the
// nearest cluster. Remaining slots are filled with the skipped candidates in order.
func (h *HNSWIndex) selectNeighbors(sorted []candidate, m int) []int {
	out := make([]int, 0, m)
	var skipped []int
	for _, c := range sorted {
		if len(out) == m {
			break
		}
		diverse := true
		for _, s := range out {
			if SquaredL2(h.vectors[c.id], h.vectors[s]) <= c.dist {
				diverse = false
				break
			}
		}
		if diverse {
			out = append(out, c.id)
		} else {
			skipped = append(skipped, c.id)
		}
	}
	for _, id := range skipped {
		if len(out) == m {
			break
		}
		out = append(out, id)
	}
	return out
}

// shrink reselects the neighbor list of node on layer down to maxLinks entries.
func (h *HNSWIndex) shrink(node, layer int) {
	base := h.vectors[node]
	cands := make([]candidate, len(h.links[node][layer]))
	for i, n := range h.links[node][layer] {
		cands[i] = candidate{id: n, dist: SquaredL2(base, h.vectors[n])}
	}
	sortCandidates(cands)
	h.links[node][layer] = h.selectNeighbors(cands, h.maxLinks(layer))
}

// connect links every base layer node that the entry point cannot reach from its
// nearest reachable node, so a search wide enough always sees the whole index.
func (h *HNSWIndex) connect() {
	if h.entry < 0 {
		return
	}
	reached := make([]bool, len(h.vectors))
	var order []int
	visit := func(start int) {
		stack := []int{start}
		reached[start] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			order = append(order, n)
			for _, m := range h.links[n][0] {
				if !reached[m] {
					reached[m] = true
					stack = append(stack, m)
				}
			}
		}
	}
	visit(h.entry)

	for node := range h.vectors {
		if reached[node] {
			continue
		}
		nearest := candidate{id: -1}
		for _, r := range order {
			c := candidate{id: r, dist: SquaredL2(h.vectors[node], h.vectors[r])}
			if nearest.id < 0 || worse(nearest, c) {
				nearest = c
			}
		}
		h.links[nearest.id][0] = append(h.links[nearest.id][0], node)
		visit(node)
	}
}

// searchLayer runs the best-first beam search of width ef on one layer and returns
// the found candidates sorted by ascending distance.
func (h *HNSWIndex) searchLayer(query []float32, entries []candidate, ef, layer int) []candidate {
	visited := make(map[int]struct{}, ef*2)
	pending := &minHeap{}
	results := &maxHeap{}
	for _, e := range entries {
		if _, seen := visited[e.id]; seen {
			continue
		}
		visited[e.id] = struct{}{}
		heap.Push(pending, e)
		heap.Push(results, e)
		if results.Len() > ef {
			heap.Pop(results)
		}
	}

	for pending.Len() > 0 {
		current := heap.Pop(pending).(candidate)
		if results.Len() >= ef && worse(current, (*results)[0]) {
			break
		}
		if layer >= len(h.links[current.id]) {
			continue
		}
		for _, n := range h.links[current.id][layer] {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			c := candidate{id: n, dist: SquaredL2(query, h.vectors[n])}
			if results.Len() < ef || worse((*results)[0], c) {
				heap.Push(pending, c)
				heap.Push(results, c)
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	found := make([]candidate, results.Len())
	copy(found, *results)
	sortCandidates(found)
	return found
}

// Search returns up to k approximate nearest neighbors of query, ties broken by ID.
func (h *HNSWIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if k <= 0 || len(h.vectors) == 0 {
		return nil, nil
	}
	if len(query) != h.dimensions {
		return nil, fmt.Errorf("hnsw: %w: got %d, expected %d", ErrDimensionMismatch, len(query), h.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []candidate{{id: h.entry, dist: SquaredL2(query, h.vectors[h.entry])}}
	for layer := h.maxLevel; layer > 0; layer-- {
		entries = h.searchLayer(query, entries, 1, layer)
	}
	// Every node holds at least one position, so k nodes always cover k results.
	nodes := k
	if nodes > len(h.vectors) {
		nodes = len(h.vectors)
	}
	ef := h.params.EfSearch
	if nodes > ef {
		ef = nodes
	}
	found := closest(h.searchLayer(query, entries, ef, 0), nodes)

	var out []Neighbor
	for _, c := range found {
		d := math.Sqrt(c.dist)
		for _, id := range h.members[c.id] {
			out = append(out, Neighbor{ID: id, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Size returns the number of indexed vectors.
func (h *HNSWIndex) Size() int {
	return h.size
}

// Dimensions returns the vector dimension, 0 for an empty index.
func (h *HNSWIndex) Dimensions() int {
	return h.dimensions
}

// Type returns the index type identifier.
func (h *HNSWIndex) Type() string {
	return string(IndexTypeHNSW)
}

// Params returns the effective graph parameters.
func (h *HNSWIndex) Params() HNSWParams {
	return h.params
}

// Close releases the graph.
func (h *HNSWIndex) Close() error {
	h.vectors = nil
	h.members = nil
	h.links = nil
	h.size = 0
	h.entry = -1
	return nil
}

// candidate is a node with its squared distance to the current query.
type candidate struct {
	id   int
	dist float64
}

// worse reports whether a ranks after b: larger distance, ties broken by larger ID.
func worse(a, b candidate) bool {
	if a.dist != b.dist {
		return a.dist > b.dist
	}
	return a.id > b.id
}

func sortCandidates(c []candidate) {
	sort.Slice(c, func(i, j int) bool { return worse(c[j], c[i]) })
}

// closest returns the first n candidates of an ascending slice.
func closest(sorted []candidate, n int) []candidate {
	if len(sorted) > n {
		return sorted[:n]
	}
	return sorted
}

type minHeap []candidate

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return worse(h[j], h[i]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

type maxHeap []candidate

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}
