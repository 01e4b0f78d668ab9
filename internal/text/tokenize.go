// Package text turns free text into token sets and compares them.
package text

import (
	"container/list"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"
)

// MinTokenLen is the shortest token kept by Tokenize.
const MinTokenLen = 3

// DefaultCacheCapacity bounds the tokenizer memo cache.
const DefaultCacheCapacity = 1000

// Letters/digits with internal hyphens or apostrophes ("state-of-the-art", "can't").
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’-][\p{L}\p{N}]+)*`)

// TokenSet is an immutable-by-convention set of tokens.
type TokenSet map[string]struct{}

// Has reports whether tok is in the set.
func (s TokenSet) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sortStrings(out)
	return out
}

// Tokenize lowercases s and extracts tokens of at least MinTokenLen runes.
func Tokenize(s string) TokenSet {
	set := TokenSet{}
	if s == "" {
		return set
	}
	for _, m := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
		m = strings.ReplaceAll(m, "’", "'")
		if utf8.RuneCountInString(m) < MinTokenLen {
			continue
		}
		set[m] = struct{}{}
	}
	return set
}

// Tokenizer memoizes Tokenize behind a bounded cache. Entries are evicted
// oldest-inserted first. A nil Tokenizer or one with capacity <= 0 tokenizes
// without caching.
//
// Safe for concurrent use. Returned sets are shared and must not be modified.
type Tokenizer struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = newest

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type cacheEntry struct {
	key    string
	tokens TokenSet
}

// CacheStats is a snapshot of tokenizer cache counters.
type CacheStats struct {
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// NewTokenizer creates a Tokenizer holding at most capacity cached inputs.
func NewTokenizer(capacity int) *Tokenizer {
	t := &Tokenizer{capacity: capacity}
	if capacity > 0 {
		t.items = make(map[string]*list.Element, capacity)
		t.order = list.New()
	}
	return t
}

// Tokenize returns the token set for s, from cache when possible.
func (t *Tokenizer) Tokenize(s string) TokenSet {
	if t == nil || t.capacity <= 0 {
		return Tokenize(s)
	}

	t.mu.Lock()
	if elem, ok := t.items[s]; ok {
		t.mu.Unlock()
		t.hits.Add(1)
		return elem.Value.(*cacheEntry).tokens
	}
	t.mu.Unlock()

	t.misses.Add(1)
	tokens := Tokenize(s)

	t.mu.Lock()
	defer t.mu.Unlock()
	// another goroutine may have filled it meanwhile; keep one instance per key
	if elem, ok := t.items[s]; ok {
		return elem.Value.(*cacheEntry).tokens
	}
	for t.order.Len() >= t.capacity {
		oldest := t.order.Back()
		t.order.Remove(oldest)
		delete(t.items, oldest.Value.(*cacheEntry).key)
		t.evictions.Add(1)
	}
	t.items[s] = t.order.PushFront(&cacheEntry{key: s, tokens: tokens})
	return tokens
}

// Stats returns the current cache counters.
func (t *Tokenizer) Stats() CacheStats {
	if t == nil {
		return CacheStats{}
	}
	stats := CacheStats{
		Capacity:  t.capacity,
		Hits:      t.hits.Load(),
		Misses:    t.misses.Load(),
		Evictions: t.evictions.Load(),
	}
	if t.capacity > 0 {
		t.mu.Lock()
		stats.Size = t.order.Len()
		t.mu.Unlock()
	}
	return stats
}

// Purge drops every cached entry.
func (t *Tokenizer) Purge() {
	if t == nil || t.capacity <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[string]*list.Element, t.capacity)
	t.order.Init()
}
