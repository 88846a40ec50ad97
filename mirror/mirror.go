// Package mirror keeps a last-known-good copy of every entity list in Redis,
// under one key namespace, and exports or restores that namespace as a
// single backup document.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	e "precisionpulse/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SnapshotVersion is written into every exported document and required on
// import.
const SnapshotVersion = 1

// Snapshot is the backup document: {version, createdAt, data}.
type Snapshot struct {
	Version   int                        `json:"version"`
	CreatedAt time.Time                  `json:"createdAt"`
	Data      map[string]json.RawMessage `json:"data"`
}

// Redis is the mirror. A nil client turns every operation into a no-op so
// the service runs without Redis.
type Redis struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func New(client *redis.Client, prefix string, logger *zap.Logger) *Redis {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &Redis{client: client, prefix: prefix, logger: logger.Named("mirror")}
}

// NewClient connects to addr and pings it. It returns nil when Redis cannot
// be reached; callers degrade to running without a mirror.
func NewClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

func (m *Redis) Enabled() bool {
	return m != nil && m.client != nil
}

// Save stores v as JSON under key.
func (m *Redis) Save(ctx context.Context, key string, v any) error {
	if !m.Enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.client.Set(ctx, m.prefix+key, raw, 0).Err()
}

// Load decodes the value under key into v. It reports false when nothing is
// stored.
func (m *Redis) Load(ctx context.Context, key string, v any) (bool, error) {
	if !m.Enabled() {
		return false, nil
	}
	raw, err := m.client.Get(ctx, m.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("corrupt mirror entry %s: %w", key, err)
	}
	return true, nil
}

// Export collects every key in the namespace.
func (m *Redis) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Version: SnapshotVersion, CreatedAt: time.Now().UTC(), Data: map[string]json.RawMessage{}}
	if !m.Enabled() {
		return snap, nil
	}

	iter := m.client.Scan(ctx, 0, m.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := m.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !json.Valid(raw) {
			m.logger.Warn("skipping non-JSON mirror entry", zap.String("key", key))
			continue
		}
		snap.Data[strings.TrimPrefix(key, m.prefix)] = raw
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Import writes every key of snap, overwriting existing values. Keys that
// are not in snap are left alone.
func (m *Redis) Import(ctx context.Context, snap *Snapshot) (int, error) {
	if snap == nil || snap.Version != SnapshotVersion {
		return 0, e.Validation("version", "unsupported backup version")
	}
	if snap.Data == nil {
		return 0, e.Validation("data", "backup has no data")
	}
	if !m.Enabled() {
		return 0, fmt.Errorf("mirror is not configured")
	}

	pipe := m.client.TxPipeline()
	for key, raw := range snap.Data {
		if !json.Valid(raw) {
			return 0, e.Validation("data."+key, "value is not valid JSON")
		}
		pipe.Set(ctx, m.prefix+key, []byte(raw), 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	m.logger.Info("backup restored", zap.Int("keys", len(snap.Data)))
	return len(snap.Data), nil
}
