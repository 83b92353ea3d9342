package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// gobMarker prefixes gob-encoded payloads in Redis. A JSON document can never
// start with a NUL byte, so the two encodings are distinguishable on read.
const gobMarker = 0x00

// Tiered is a two-level cache: an in-process expirable LRU in front of Redis.
// Reads check the local tier first and backfill it on a Redis hit. Values
// that must be visible across process instances (token blacklist, SSO nonces)
// go through both tiers; advisory values can stay local via the *Local
// variants.
type Tiered struct {
	local     *expirable.LRU[string, any]
	client    *redis.Client
	namespace string
}

// NewTiered constructs a Tiered cache. size bounds the local tier and ttl is
// its per-entry lifetime; both only affect the in-process tier.
func NewTiered(client *redis.Client, namespace string, size int, ttl time.Duration) *Tiered {
	if size <= 0 {
		size = 128
	}
	return &Tiered{
		local:     expirable.NewLRU[string, any](size, nil, ttl),
		client:    client,
		namespace: namespace,
	}
}

// RegisterType makes a concrete type encodable by the gob fallback. Callers
// storing non-JSON-serializable values must register them once at startup.
func RegisterType(v any) {
	gob.Register(v)
}

// Get returns the cached value for key, checking the local tier first and
// falling through to Redis. A Redis entry that fails to decode is deleted and
// reported as a miss; transport failures also read as misses.
func (t *Tiered) Get(ctx context.Context, key string) (any, bool) {
	v, ok, _ := t.Lookup(ctx, key)
	return v, ok
}

// Lookup is Get with transport errors surfaced. Callers enforcing security
// state (token blacklist, SSO nonces) use it so an unreachable durable tier
// reads as an error rather than an absence. A corrupt entry is still deleted
// and reported as a miss.
func (t *Tiered) Lookup(ctx context.Context, key string) (any, bool, error) {
	if v, ok := t.local.Get(key); ok {
		return v, true, nil
	}

	raw, err := t.client.Get(ctx, t.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	v, err := decode(raw)
	if err != nil {
		_ = t.client.Del(ctx, t.key(key)).Err()
		return nil, false, nil
	}

	t.local.Add(key, v)
	return v, true, nil
}

// Set writes the value to both tiers. A zero ttl means no expiration on the
// Redis side; the local tier always uses its construction-time lifetime.
func (t *Tiered) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	t.local.Add(key, value)

	raw, err := encode(value)
	if err != nil {
		return err
	}
	return t.client.Set(ctx, t.key(key), raw, ttl).Err()
}

// Delete removes the key from both tiers.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	t.local.Remove(key)
	return t.client.Del(ctx, t.key(key)).Err()
}

// GetLocal reads from the in-process tier only.
func (t *Tiered) GetLocal(key string) (any, bool) {
	return t.local.Get(key)
}

// SetLocal writes to the in-process tier only. Used for advisory, regenerable
// values like the permission generation flag and memoized permission sets.
func (t *Tiered) SetLocal(key string, value any) {
	t.local.Add(key, value)
}

func (t *Tiered) key(key string) string {
	if t.namespace == "" {
		return key
	}
	return t.namespace + ":" + key
}

// encode serializes a value JSON-first so simple entries stay inspectable in
// Redis, falling back to gob for values JSON cannot represent.
func encode(value any) ([]byte, error) {
	if raw, err := json.Marshal(value); err == nil {
		return raw, nil
	}

	var buf bytes.Buffer
	buf.WriteByte(gobMarker)
	if err := gob.NewEncoder(&buf).Encode(&value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, errors.New("cache: empty payload")
	}

	if raw[0] == gobMarker {
		var v any
		if err := gob.NewDecoder(bytes.NewReader(raw[1:])).Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
