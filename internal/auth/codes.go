package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CodeTTL is how long a one-time mobile login code stays redeemable.
const CodeTTL = 5 * time.Minute

// CodeStore hands out single-use codes bound to an email. Consume removes the
// code atomically, so a code is redeemed at most once.
type CodeStore interface {
	Create(ctx context.Context, email string) (string, error)
	Consume(ctx context.Context, code string) (email string, ok bool, err error)
}

type codeEntry struct {
	email   string
	expires time.Time
}

// MemoryCodes keeps codes in process memory.
type MemoryCodes struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	codes map[string]codeEntry
}

func NewMemoryCodes(ttl time.Duration) *MemoryCodes {
	return &MemoryCodes{ttl: ttl, now: time.Now, codes: make(map[string]codeEntry)}
}

func (m *MemoryCodes) Create(_ context.Context, email string) (string, error) {
	code := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.codes {
		if !now.Before(e.expires) {
			delete(m.codes, k)
		}
	}
	m.codes[code] = codeEntry{email: email, expires: now.Add(m.ttl)}
	return code, nil
}

func (m *MemoryCodes) Consume(_ context.Context, code string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.codes[code]
	if !ok {
		return "", false, nil
	}
	delete(m.codes, code)
	if !m.now().Before(e.expires) {
		return "", false, nil
	}
	return e.email, true, nil
}

// RedisCodes keeps codes in Redis so any API instance can redeem them.
type RedisCodes struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCodes(client *redis.Client, ttl time.Duration) *RedisCodes {
	return &RedisCodes{client: client, ttl: ttl, prefix: "attendanceio:mobile-code:"}
}

func (r *RedisCodes) Create(ctx context.Context, email string) (string, error) {
	code := uuid.NewString()
	if err := r.client.Set(ctx, r.prefix+code, email, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("store login code: %w", err)
	}
	return code, nil
}

func (r *RedisCodes) Consume(ctx context.Context, code string) (string, bool, error) {
	email, err := r.client.GetDel(ctx, r.prefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("consume login code: %w", err)
	}
	return email, true, nil
}
