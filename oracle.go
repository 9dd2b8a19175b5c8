package wikibench

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Unreachable is the distance reported when no path exists within the
// search depth cap.
const Unreachable = 999

const defaultMaxSearchDepth = 10

// Oracle computes exact shortest-hop distances between articles with
// breadth-first search over a LinkSource, expanding the graph lazily one
// frontier at a time. Link sets and pair distances are cached for the
// process lifetime; once written, an entry never changes. Concurrent
// queries for the same pair are coalesced so the graph source sees at
// most one fetch per node.
type Oracle struct {
	source   LinkSource
	maxDepth int

	mu        sync.RWMutex
	distances map[pairKey]int
	paths     map[pairKey][]string
	links     map[string][]string
	canonical map[string]string // normalized -> title as the source reports it

	queries singleflight.Group // one BFS per (from, to) pair
	fetches singleflight.Group // one link fetch per node
}

type pairKey struct{ from, to string }

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithMaxSearchDepth caps the BFS depth. Pairs further apart than the
// cap are reported as Unreachable.
func WithMaxSearchDepth(n int) OracleOption {
	return func(o *Oracle) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// NewOracle constructs an Oracle over the given link source.
func NewOracle(source LinkSource, opts ...OracleOption) *Oracle {
	o := &Oracle{
		source:    source,
		maxDepth:  defaultMaxSearchDepth,
		distances: make(map[pairKey]int),
		paths:     make(map[pairKey][]string),
		links:     make(map[string][]string),
		canonical: make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Distance returns the minimum number of clicks from one article to
// another, or Unreachable if no path exists within the depth cap.
// Distance(a, a) is 0.
func (o *Oracle) Distance(ctx context.Context, from, to string) (int, error) {
	d, _, err := o.query(ctx, from, to, false)
	return d, err
}

// ShortestPath returns one witness shortest path, start and end titles
// included, or nil if the pair is unreachable within the depth cap.
// When several minimal paths exist, the first one discovered in
// link-traversal order is returned.
func (o *Oracle) ShortestPath(ctx context.Context, from, to string) ([]string, error) {
	_, p, err := o.query(ctx, from, to, true)
	return p, err
}

type bfsResult struct {
	distance int
	path     []string
}

// query serves a cached answer when one satisfies the caller: a
// distance-only entry (settled opportunistically during an earlier BFS)
// is enough for Distance, while ShortestPath needs a witness path.
func (o *Oracle) query(ctx context.Context, from, to string, needPath bool) (int, []string, error) {
	key := pairKey{NormalizeTitle(from), NormalizeTitle(to)}
	if key.from == key.to {
		return 0, []string{from}, nil
	}

	o.mu.RLock()
	d, haveDist := o.distances[key]
	p := o.paths[key]
	o.mu.RUnlock()
	if haveDist && (!needPath || p != nil || d == Unreachable) {
		return d, p, nil
	}

	v, err, _ := o.queries.Do(key.from+"\x00"+key.to, func() (any, error) {
		// A concurrent caller may have completed the same query while
		// this one waited on the flight group.
		o.mu.RLock()
		d, ok := o.distances[key]
		p := o.paths[key]
		o.mu.RUnlock()
		if ok && (p != nil || d == Unreachable) {
			return bfsResult{distance: d, path: p}, nil
		}

		res, err := o.search(ctx, from, to)
		if err != nil {
			return nil, err
		}

		o.mu.Lock()
		if _, exists := o.distances[key]; !exists {
			o.distances[key] = res.distance
		}
		if o.paths[key] == nil && res.path != nil {
			o.paths[key] = res.path
		}
		o.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return 0, nil, err
	}
	res := v.(bfsResult)
	return res.distance, res.path, nil
}

type frontierNode struct {
	title string
	depth int
}

// search runs the BFS itself. Raw titles travel through the queue (the
// graph source wants them verbatim); visited-set and parent bookkeeping
// use normalized titles.
func (o *Oracle) search(ctx context.Context, from, to string) (bfsResult, error) {
	start := NormalizeTitle(from)
	target := NormalizeTitle(to)

	visited := map[string]bool{start: true}
	parents := map[string]string{}
	queue := []frontierNode{{title: from, depth: 0}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return bfsResult{}, err
		}
		current := queue[0]
		queue = queue[1:]

		if current.depth >= o.maxDepth {
			continue
		}

		links, err := o.outboundLinks(ctx, current.title)
		if err != nil {
			return bfsResult{}, err
		}

		for _, link := range links {
			norm := NormalizeTitle(link)
			if norm == target {
				path := o.assemblePath(parents, current.title, from)
				return bfsResult{distance: current.depth + 1, path: append(path, link)}, nil
			}
			if !visited[norm] {
				visited[norm] = true
				parents[norm] = current.title
				// BFS settles every discovered node at its true
				// distance from the start, so cache it while we are
				// here.
				o.storeDistance(pairKey{start, norm}, current.depth+1)
				queue = append(queue, frontierNode{title: link, depth: current.depth + 1})
			}
		}
	}

	return bfsResult{distance: Unreachable, path: nil}, nil
}

// assemblePath walks the parent chain from last back to first,
// returning titles in traversal order ending at last.
func (o *Oracle) assemblePath(parents map[string]string, last, first string) []string {
	var reversed []string
	cur := last
	firstNorm := NormalizeTitle(first)
	for NormalizeTitle(cur) != firstNorm {
		reversed = append(reversed, cur)
		cur = parents[NormalizeTitle(cur)]
	}
	path := make([]string, 0, len(reversed)+1)
	path = append(path, first)
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

// storeDistance inserts a distance if absent. Entries are write-once;
// racing writers compute identical values, so first-write-wins is safe.
func (o *Oracle) storeDistance(key pairKey, d int) {
	o.mu.Lock()
	if _, exists := o.distances[key]; !exists {
		o.distances[key] = d
	}
	o.mu.Unlock()
}

// outboundLinks returns the cached link set for a node, fetching it at
// most once even under concurrent demand. The cache is keyed on the
// normalized title, and fetches reuse the canonical form once the
// source has revealed it, so case variants of one article share a
// single entry and a single fetch.
func (o *Oracle) outboundLinks(ctx context.Context, title string) ([]string, error) {
	norm := NormalizeTitle(title)

	o.mu.RLock()
	cached, ok := o.links[norm]
	o.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := o.fetches.Do(norm, func() (any, error) {
		o.mu.RLock()
		cached, ok := o.links[norm]
		fetchTitle, known := o.canonical[norm]
		o.mu.RUnlock()
		if ok {
			return cached, nil
		}
		if !known {
			fetchTitle = title
		}
		links, err := o.source.OutboundLinks(ctx, fetchTitle)
		if err != nil {
			return nil, &GraphFetchError{Title: fetchTitle, Err: err}
		}
		o.mu.Lock()
		o.links[norm] = links
		if _, exists := o.canonical[norm]; !exists {
			o.canonical[norm] = fetchTitle
		}
		for _, link := range links {
			ln := NormalizeTitle(link)
			if _, exists := o.canonical[ln]; !exists {
				o.canonical[ln] = link
			}
		}
		o.mu.Unlock()
		return links, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}
