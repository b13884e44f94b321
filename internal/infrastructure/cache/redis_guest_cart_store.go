package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/cart"
)

// RedisGuestCartStore implements cart.GuestCartStore using Redis.
// Guest carts are ephemeral by design: each session's lines live under a
// single key with a TTL, so abandoned carts expire on their own and a
// cache flush simply loses them.
type RedisGuestCartStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// guestCartLine is the stored wire form of a cart line
type guestCartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// NewRedisGuestCartStore creates a guest cart store on an existing Redis client
func NewRedisGuestCartStore(client *redis.Client, ttl time.Duration) *RedisGuestCartStore {
	return &RedisGuestCartStore{
		client:    client,
		keyPrefix: "cart:guest:",
		ttl:       ttl,
	}
}

func (s *RedisGuestCartStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// Get returns the lines of a guest cart. A missing key is an empty cart,
// never an error.
func (s *RedisGuestCartStore) Get(ctx context.Context, sessionID string) ([]cart.CartLine, error) {
	payload, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return []cart.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	var stored []guestCartLine
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}

	return decodeLines(stored)
}

// Replace overwrites the full line set of a guest cart and refreshes its TTL.
// An empty line set deletes the key.
func (s *RedisGuestCartStore) Replace(ctx context.Context, sessionID string, lines []cart.CartLine) error {
	if len(lines) == 0 {
		return s.Clear(ctx, sessionID)
	}

	stored := make([]guestCartLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		stored = append(stored, guestCartLine{
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
		})
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write guest cart: %w", err)
	}
	return nil
}

// Clear deletes a guest cart. Clearing an absent cart is a no-op.
func (s *RedisGuestCartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}
	return nil
}

// decodeLines converts stored lines back into domain cart lines,
// dropping entries with corrupt product IDs or non-positive quantities.
func decodeLines(stored []guestCartLine) ([]cart.CartLine, error) {
	lines := make([]cart.CartLine, 0, len(stored))
	for _, entry := range stored {
		productID, err := uuid.Parse(entry.ProductID)
		if err != nil || entry.Quantity <= 0 {
			continue
		}
		lines = append(lines, cart.CartLine{
			ProductID: productID,
			Quantity:  entry.Quantity,
		})
	}
	return lines, nil
}

var _ cart.GuestCartStore = (*RedisGuestCartStore)(nil)
