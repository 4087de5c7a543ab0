// Package session stores short-lived reading-session tokens in Redis. A
// session token proves the reader actually opened a book before the reward
// endpoint pays out; tokens expire after a TTL and are single use.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BlackFoxMetaverse/bfm-mini-app/internal/config"
)

var ErrSessionNotFound = errors.New("reading session not found or expired")

type ReadingSession struct {
	Token  string `json:"readingToken"`
	Nonce  string `json:"nonce"`
	BookID string `json:"bookId"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(cfg config.RedisConfig, ttl time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{rdb: rdb, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// CreateReadingSession issues a fresh token for the given user and book.
func (s *Store) CreateReadingSession(ctx context.Context, userID, bookID string) (*ReadingSession, error) {
	token, err := randomHex(16)
	if err != nil {
		return nil, err
	}
	nonce, err := randomHex(8)
	if err != nil {
		return nil, err
	}

	key := readingKey(userID, token)
	if err := s.rdb.Set(ctx, key, bookID+":"+nonce, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store reading session: %w", err)
	}

	return &ReadingSession{Token: token, Nonce: nonce, BookID: bookID}, nil
}

// RedeemReadingSession consumes the token. GETDEL makes redemption single
// use even under concurrent reward calls.
func (s *Store) RedeemReadingSession(ctx context.Context, userID, token, bookID string) error {
	key := readingKey(userID, token)
	val, err := s.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	if len(val) <= len(bookID) || val[:len(bookID)] != bookID || val[len(bookID)] != ':' {
		return ErrSessionNotFound
	}
	return nil
}

func readingKey(userID, token string) string {
	return "reading:" + userID + ":" + token
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
