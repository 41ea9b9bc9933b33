package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps the active token under one key per workplace and direction, expiring with the token.
type RedisTokenStore struct {
	client *goredis.Client
	prefix string
}

func NewRedisTokenStore(client *goredis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: "chancehr:qr"}
}

func (s *RedisTokenStore) key(workplaceID, direction string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, workplaceID, direction)
}

func (s *RedisTokenStore) Put(ctx context.Context, token QRToken) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, s.key(token.WorkplaceID, token.Direction), payload, ttl).Err()
}

func (s *RedisTokenStore) Get(ctx context.Context, workplaceID, direction string) (QRToken, bool, error) {
	raw, err := s.client.Get(ctx, s.key(workplaceID, direction)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return QRToken{}, false, nil
	}
	if err != nil {
		return QRToken{}, false, err
	}
	var token QRToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return QRToken{}, false, err
	}
	return token, true, nil
}

// PostgresTokenStore is used when no Redis is configured.
type PostgresTokenStore struct {
	DB *pgxpool.Pool
}

func NewPostgresTokenStore(pool *pgxpool.Pool) *PostgresTokenStore {
	return &PostgresTokenStore{DB: pool}
}

func (s *PostgresTokenStore) Put(ctx context.Context, token QRToken) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO qr_tokens (workplace_id, direction, token, issued_at, expires_at)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (workplace_id, direction)
    DO UPDATE SET token = EXCLUDED.token, issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at
  `, token.WorkplaceID, token.Direction, token.Token, token.IssuedAt, token.ExpiresAt)
	return err
}

func (s *PostgresTokenStore) Get(ctx context.Context, workplaceID, direction string) (QRToken, bool, error) {
	token := QRToken{WorkplaceID: workplaceID, Direction: direction}
	err := s.DB.QueryRow(ctx, `
    SELECT token, issued_at, expires_at
    FROM qr_tokens
    WHERE workplace_id = $1 AND direction = $2
  `, workplaceID, direction).Scan(&token.Token, &token.IssuedAt, &token.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return QRToken{}, false, nil
	}
	if err != nil {
		return QRToken{}, false, err
	}
	return token, true, nil
}

type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]QRToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: map[string]QRToken{}}
}

func (s *MemoryTokenStore) Put(_ context.Context, token QRToken) error {
	s.mu.Lock()
	s.tokens[token.WorkplaceID+"/"+token.Direction] = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, workplaceID, direction string) (QRToken, bool, error) {
	s.mu.RLock()
	token, ok := s.tokens[workplaceID+"/"+direction]
	s.mu.RUnlock()
	return token, ok, nil
}
