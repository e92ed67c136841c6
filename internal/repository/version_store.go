package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/workpulse/work-pulse/pkg/redis"
)

// Version identifies the state of a tenant's events. Seq grows on every write; Epoch
// changes whenever the store loses its counters, so a Seq counted again from zero
// never equals one issued before the loss.
type Version struct {
	Epoch string
	Seq   int64
}

// VersionStore holds a per-tenant version bumped on every event write.
// Cached projections are keyed by it, so a bump invalidates them all.
type VersionStore interface {
	// Current returns the tenant's version
	Current(ctx context.Context, tenantID string) (Version, error)
	// Bump increments and returns the tenant's version
	Bump(ctx context.Context, tenantID string) (Version, error)
}

func versionKey(tenantID string) string {
	return "calendar:version:" + tenantID
}

const versionScriptName = "calendar_version"

// KEYS[1] version hash
// ARGV[1] epoch to install when the hash is missing, ARGV[2] "1" to bump
// Epoch and seq live in one hash so they are evicted or flushed together.
const versionScript = `
local epoch = redis.call("HGET", KEYS[1], "epoch")
if not epoch then
    epoch = ARGV[1]
    redis.call("DEL", KEYS[1])
    redis.call("HSET", KEYS[1], "epoch", epoch, "seq", 0)
end

local seq
if ARGV[2] == "1" then
    seq = redis.call("HINCRBY", KEYS[1], "seq", 1)
else
    seq = tonumber(redis.call("HGET", KEYS[1], "seq")) or 0
end
return {epoch, seq}
`

// RedisVersionStore keeps versions in Redis so every replica agrees on them
type RedisVersionStore struct {
	client *redis.Client
}

// NewRedisVersionStore loads the version script and returns a RedisVersionStore
func NewRedisVersionStore(ctx context.Context, client *redis.Client) (*RedisVersionStore, error) {
	if _, err := client.LoadScript(ctx, versionScriptName, versionScript); err != nil {
		return nil, err
	}
	return &RedisVersionStore{client: client}, nil
}

// Current returns the tenant's version
func (s *RedisVersionStore) Current(ctx context.Context, tenantID string) (Version, error) {
	v, err := s.eval(ctx, tenantID, false)
	if err != nil {
		return Version{}, fmt.Errorf("failed to read calendar version: %w", err)
	}
	return v, nil
}

// Bump increments the tenant's version
func (s *RedisVersionStore) Bump(ctx context.Context, tenantID string) (Version, error) {
	v, err := s.eval(ctx, tenantID, true)
	if err != nil {
		return Version{}, fmt.Errorf("failed to bump calendar version: %w", err)
	}
	return v, nil
}

func (s *RedisVersionStore) eval(ctx context.Context, tenantID string, bump bool) (Version, error) {
	flag := "0"
	if bump {
		flag = "1"
	}
	res, err := s.client.EvalShaByName(ctx, versionScriptName,
		[]string{versionKey(tenantID)},
		uuid.NewString(), flag,
	).Slice()
	if err != nil {
		return Version{}, err
	}
	if len(res) != 2 {
		return Version{}, fmt.Errorf("unexpected version reply: %v", res)
	}
	epoch, ok := res[0].(string)
	if !ok {
		return Version{}, fmt.Errorf("unexpected version epoch: %v", res[0])
	}
	seq, ok := res[1].(int64)
	if !ok {
		return Version{}, fmt.Errorf("unexpected version seq: %v", res[1])
	}
	return Version{Epoch: epoch, Seq: seq}, nil
}

// MemoryVersionStore is a process-local VersionStore. Its epoch is fixed for the
// lifetime of the store.
type MemoryVersionStore struct {
	mu       sync.Mutex
	epoch    string
	versions map[string]int64
}

// NewMemoryVersionStore creates a MemoryVersionStore with a fresh epoch
func NewMemoryVersionStore() *MemoryVersionStore {
	return &MemoryVersionStore{
		epoch:    uuid.NewString(),
		versions: make(map[string]int64),
	}
}

// Current returns the tenant's version
func (s *MemoryVersionStore) Current(ctx context.Context, tenantID string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Version{Epoch: s.epoch, Seq: s.versions[tenantID]}, nil
}

// Bump increments the tenant's version
func (s *MemoryVersionStore) Bump(ctx context.Context, tenantID string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[tenantID]++
	return Version{Epoch: s.epoch, Seq: s.versions[tenantID]}, nil
}
