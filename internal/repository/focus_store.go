package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/pkg/redis"
)

// FocusStore persists the latest focus session of each (tenant, user).
// Save is a compare-and-set on FocusSession.Version: expectedVersion is the version the
// caller read (0 when nothing was stored) and a mismatch yields ErrVersionConflict.
type FocusStore interface {
	// Get returns the stored session, or nil
	Get(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error)
	// Save stores session if the stored version still equals expectedVersion
	Save(ctx context.Context, session *domain.FocusSession, expectedVersion int64) error
}

func focusKey(tenantID, userID string) string {
	return fmt.Sprintf("focus:session:%s:%s", tenantID, userID)
}

const saveFocusScriptName = "focus_save"

// KEYS[1] session key
// ARGV[1] encoded session, ARGV[2] expected version, ARGV[3] ttl in milliseconds
const saveFocusScript = `
local current = redis.call("GET", KEYS[1])
local expected = tonumber(ARGV[2])

local stored = 0
if current then
    local decoded = cjson.decode(current)
    stored = tonumber(decoded.version) or 0
end

if stored ~= expected then
    return {0, "VERSION_CONFLICT", "stored version " .. stored .. " does not match " .. expected}
end

local ttl = tonumber(ARGV[3])
if ttl and ttl > 0 then
    redis.call("SET", KEYS[1], ARGV[1], "PX", ttl)
else
    redis.call("SET", KEYS[1], ARGV[1])
end
return {1, "OK", ""}
`

// RedisFocusStore keeps sessions as JSON values with a TTL
type RedisFocusStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFocusStore loads the save script and returns a RedisFocusStore
func NewRedisFocusStore(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisFocusStore, error) {
	if _, err := client.LoadScript(ctx, saveFocusScriptName, saveFocusScript); err != nil {
		return nil, err
	}
	return &RedisFocusStore{client: client, ttl: ttl}, nil
}

// Get returns the stored session, or nil
func (s *RedisFocusStore) Get(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error) {
	raw, err := s.client.Get(ctx, focusKey(tenantID, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read focus session: %w", err)
	}

	var session domain.FocusSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode focus session: %w", err)
	}
	return &session, nil
}

// Save stores session if the stored version still equals expectedVersion
func (s *RedisFocusStore) Save(ctx context.Context, session *domain.FocusSession, expectedVersion int64) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode focus session: %w", err)
	}

	res, err := s.client.EvalShaByName(ctx, saveFocusScriptName,
		[]string{focusKey(session.TenantID, session.UserID)},
		string(payload), expectedVersion, s.ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return fmt.Errorf("failed to save focus session: %w", err)
	}

	if len(res) < 2 {
		return fmt.Errorf("unexpected focus save reply: %v", res)
	}
	if ok, _ := res[0].(int64); ok != 1 {
		code, _ := res[1].(string)
		if code == "VERSION_CONFLICT" {
			return ErrVersionConflict
		}
		return fmt.Errorf("focus save rejected: %v", res)
	}
	return nil
}

// MemoryFocusStore is a process-local FocusStore; entries expire after ttl when ttl > 0
type MemoryFocusStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryFocusEntry
}

type memoryFocusEntry struct {
	session   domain.FocusSession
	expiresAt time.Time
}

// NewMemoryFocusStore creates a MemoryFocusStore
func NewMemoryFocusStore(ttl time.Duration) *MemoryFocusStore {
	return &MemoryFocusStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryFocusEntry),
	}
}

// Get returns a copy of the stored session, or nil
func (s *MemoryFocusStore) Get(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.lookup(focusKey(tenantID, userID))
	if !ok {
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

// Save stores a copy of session if the stored version still equals expectedVersion
func (s *MemoryFocusStore) Save(ctx context.Context, session *domain.FocusSession, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := focusKey(session.TenantID, session.UserID)
	var stored int64
	if entry, ok := s.lookup(key); ok {
		stored = entry.session.Version
	}
	if stored != expectedVersion {
		return ErrVersionConflict
	}

	entry := memoryFocusEntry{session: *session}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[key] = entry
	return nil
}

// lookup must be called with mu held
func (s *MemoryFocusStore) lookup(key string) (memoryFocusEntry, bool) {
	entry, ok := s.sessions[key]
	if !ok {
		return entry, false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.sessions, key)
		return entry, false
	}
	return entry, true
}
