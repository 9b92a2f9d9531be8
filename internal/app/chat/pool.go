/*
Package chat contains the connection/session core of the relay: the concurrent
user pool, per-user outbound queues, and the per-connection session state
machine.

This file implements UserPool, the shared directory mapping each logged-in
handle to that user's outbound queue, and UserGuard, the scoped registration
handed to the session that claimed a handle. The pool is sharded: every shard
guards its slice of the handle space with its own lock, so traffic on one
handle never contends with registrations or removals elsewhere, and no lock is
held across anything that could block.
*/
package chat

import (
	"hash/fnv"
	"sort"
	"sync"

	"minichat/internal/frame"
)

const shardCount = 16

type poolShard struct {
	mu    sync.RWMutex
	users map[string]*Queue
}

// UserPool is the concurrent directory of currently logged-in users. The zero
// value is not usable; construct with NewUserPool. A single pool is shared by
// every connection for the lifetime of the process.
type UserPool struct {
	shards [shardCount]poolShard
}

// NewUserPool returns an empty pool.
func NewUserPool() *UserPool {
	p := &UserPool{}
	for i := range p.shards {
		p.shards[i].users = make(map[string]*Queue)
	}
	return p
}

func (p *UserPool) shard(handle string) *poolShard {
	h := fnv.New32a()
	h.Write([]byte(handle))
	return &p.shards[h.Sum32()%shardCount]
}

// Register atomically claims handle and creates its outbound queue. It reports
// false if the handle is already taken; under a race for the same handle
// exactly one caller wins. onRelease, if non-nil, runs after the entry has
// been removed when the returned guard is released.
func (p *UserPool) Register(handle string, onRelease func(handle string, pool *UserPool)) (*UserGuard, bool) {
	s := p.shard(handle)

	s.mu.Lock()
	if _, taken := s.users[handle]; taken {
		s.mu.Unlock()
		return nil, false
	}
	q := NewQueue()
	s.users[handle] = q
	s.mu.Unlock()

	return &UserGuard{handle: handle, pool: p, queue: q, onRelease: onRelease}, true
}

// Remove deletes the entry for handle. Removing an absent handle is a no-op.
func (p *UserPool) Remove(handle string) {
	s := p.shard(handle)

	s.mu.Lock()
	delete(s.users, handle)
	s.mu.Unlock()
}

// Contains reports whether handle is currently registered.
func (p *UserPool) Contains(handle string) bool {
	s := p.shard(handle)

	s.mu.RLock()
	_, ok := s.users[handle]
	s.mu.RUnlock()
	return ok
}

// Handles returns a sorted snapshot of the registered handles. Each shard is
// locked only while it is copied, so callers inspecting the result never hold
// up concurrent registrations or removals.
func (p *UserPool) Handles() []string {
	var handles []string
	for i := range p.shards {
		s := &p.shards[i]
		s.mu.RLock()
		for h := range s.users {
			handles = append(handles, h)
		}
		s.mu.RUnlock()
	}
	sort.Strings(handles)
	return handles
}

// Broadcast enqueues f onto every registered user's queue. Delivery is
// best-effort: a queue whose consumer already left swallows the push.
func (p *UserPool) Broadcast(f frame.Server) {
	for i := range p.shards {
		s := &p.shards[i]
		s.mu.RLock()
		for _, q := range s.users {
			q.Push(f)
		}
		s.mu.RUnlock()
	}
}

// BroadcastExcept is Broadcast minus the named handle.
func (p *UserPool) BroadcastExcept(handle string, f frame.Server) {
	for i := range p.shards {
		s := &p.shards[i]
		s.mu.RLock()
		for h, q := range s.users {
			if h != handle {
				q.Push(f)
			}
		}
		s.mu.RUnlock()
	}
}

// UserGuard represents the fact "this handle is currently registered, backed
// by this queue." The owning session must release it on every exit path.
type UserGuard struct {
	handle    string
	pool      *UserPool
	queue     *Queue
	onRelease func(handle string, pool *UserPool)
	once      sync.Once
}

// Handle returns the registered handle.
func (g *UserGuard) Handle() string {
	return g.handle
}

// Send enqueues a frame for this user's own connection.
func (g *UserGuard) Send(f frame.Server) {
	g.queue.Push(f)
}

// Queue exposes the consuming end of the user's outbound queue. Only the
// session owning the guard may consume from it.
func (g *UserGuard) Queue() *Queue {
	return g.queue
}

// Release removes the handle from the pool, closes the queue, and runs the
// post-removal callback. Calls after the first are no-ops, so it is safe on
// every exit path including failure paths.
func (g *UserGuard) Release() {
	g.once.Do(func() {
		g.pool.Remove(g.handle)
		g.queue.Close()
		if g.onRelease != nil {
			g.onRelease(g.handle, g.pool)
		}
	})
}
