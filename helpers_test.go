package jus

import (
	"context"
	"sync"

	"github.com/apptik-go/jus/pkg/cache"
)

// fakeCache is an in-memory cache.Cache used by requestqueue/dispatcher
// tests that don't need DiskCache's on-disk semantics.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*cache.Entry)}
}

func (c *fakeCache) Initialize() error { return nil }

func (c *fakeCache) Get(key string) (*cache.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *fakeCache) Put(key string, entry *cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	c.puts++
	return nil
}

func (c *fakeCache) Invalidate(key string, fullExpire bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	e.SoftTTL = 0
	if fullExpire {
		e.TTL = 0
	}
	return nil
}

func (c *fakeCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cache.Entry)
	return nil
}

// scriptedNetwork is a Network whose PerformRequest results are queued up
// front, for requestqueue/dispatcher tests that exercise queue plumbing
// without BasicNetwork's retry/auth logic.
type scriptedNetwork struct {
	mu      sync.Mutex
	script  []networkResult
	calls   int
	onCall  func(r Request)
}

type networkResult struct {
	resp *NetworkResponse
	err  error
}

func (n *scriptedNetwork) PerformRequest(r Request) (*NetworkResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.onCall != nil {
		n.onCall(r)
	}
	n.calls++
	if len(n.script) == 0 {
		return &NetworkResponse{StatusCode: 200, Data: []byte("default")}, nil
	}
	res := n.script[0]
	n.script = n.script[1:]
	return res.resp, res.err
}

func (n *scriptedNetwork) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// scriptedStack is an HttpStack whose responses are scripted for
// BasicNetwork retry-loop tests.
type scriptedStack struct {
	mu     sync.Mutex
	script []stackResult
	calls  []map[string]string
}

type stackResult struct {
	resp *NetworkResponse
	err  error
}

func (s *scriptedStack) PerformRequest(ctx context.Context, r Request, extraHeaders map[string]string) (*NetworkResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, extraHeaders)
	if len(s.script) == 0 {
		return &NetworkResponse{StatusCode: 200}, nil
	}
	res := s.script[0]
	s.script = s.script[1:]
	return res.resp, res.err
}

func (s *scriptedStack) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
