package console

import (
	"strings"
	"sync"
)

// Store is a keyed query cache. Keys are namespaced by resource, e.g.
// "students:list" or "grades:student=3"; invalidating "students" drops every
// students key and wakes its subscribers.
type Store struct {
	mu      sync.RWMutex
	entries map[string]interface{}
	subs    map[int]subscription
	nextID  int
}

type subscription struct {
	prefix string
	fn     func(key string)
}

// NewStore returns an empty cache.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]interface{}),
		subs:    make(map[int]subscription),
	}
}

// Get returns the cached value for key.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	return value, ok
}

// Set caches value under key.
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	s.entries[key] = value
	s.mu.Unlock()
}

// Invalidate drops every key starting with prefix and notifies subscribers
// whose prefix overlaps it. It returns the number of dropped keys.
func (s *Store) Invalidate(prefix string) int {
	s.mu.Lock()
	dropped := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			dropped++
		}
	}
	notify := make([]func(string), 0, len(s.subs))
	for _, sub := range s.subs {
		if strings.HasPrefix(prefix, sub.prefix) || strings.HasPrefix(sub.prefix, prefix) {
			notify = append(notify, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn(prefix)
	}
	return dropped
}

// Subscribe calls fn after every invalidation overlapping prefix. The returned
// function removes the subscription.
func (s *Store) Subscribe(prefix string, fn func(key string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = subscription{prefix: prefix, fn: fn}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// PrefixForTopic maps an invalidation topic such as "students:updated" to the
// cache namespace it covers.
func PrefixForTopic(topic string) string {
	return strings.TrimSuffix(topic, ":updated")
}
