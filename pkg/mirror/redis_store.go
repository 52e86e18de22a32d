package mirror

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each entity type in one hash: field is the internal id,
// value is the JSON encoded row. Changes are applied in MULTI/EXEC.
type RedisStore struct {
	client      redis.UniversalClient
	productsKey string
	pricesKey   string
}

// NewRedisStore uses "<prefix>:products" and "<prefix>:prices".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "catalogsync"
	}
	return &RedisStore{
		client:      client,
		productsKey: prefix + ":products",
		pricesKey:   prefix + ":prices",
	}
}

// Products reads the products hash.
func (s *RedisStore) Products(ctx context.Context) ([]ProductRow, error) {
	return redisRows(ctx, s.client, s.productsKey, func(r ProductRow) string { return r.ID })
}

// Prices reads the prices hash.
func (s *RedisStore) Prices(ctx context.Context) ([]PriceRow, error) {
	return redisRows(ctx, s.client, s.pricesKey, func(r PriceRow) string { return r.ID })
}

// ApplyProducts writes the change set in a MULTI/EXEC pipeline, dropping
// the prices of deleted products in the same transaction.
func (s *RedisStore) ApplyProducts(ctx context.Context, cs ChangeSet[ProductRow]) error {
	values, err := redisValues(append(slices.Clone(cs.Insert), cs.Update...), func(r ProductRow) string { return r.ID })
	if err != nil {
		return err
	}

	var orphans []string
	if len(cs.Delete) > 0 {
		prices, err := s.Prices(ctx)
		if err != nil {
			return err
		}
		for _, p := range prices {
			if slices.Contains(cs.Delete, p.ProductID) {
				orphans = append(orphans, p.ID)
			}
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, s.productsKey, values)
		}
		if len(orphans) > 0 {
			pipe.HDel(ctx, s.pricesKey, orphans...)
		}
		if len(cs.Delete) > 0 {
			pipe.HDel(ctx, s.productsKey, cs.Delete...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply products: %w", err)
	}
	return nil
}

// ApplyPrices writes the change set in a MULTI/EXEC pipeline.
func (s *RedisStore) ApplyPrices(ctx context.Context, cs ChangeSet[PriceRow]) error {
	values, err := redisValues(append(slices.Clone(cs.Insert), cs.Update...), func(r PriceRow) string { return r.ID })
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, s.pricesKey, values)
		}
		if len(cs.Delete) > 0 {
			pipe.HDel(ctx, s.pricesKey, cs.Delete...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply prices: %w", err)
	}
	return nil
}

// ClearProducts deletes the products and prices hashes.
func (s *RedisStore) ClearProducts(ctx context.Context) error {
	if err := s.client.Del(ctx, s.pricesKey, s.productsKey).Err(); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	return nil
}

// ClearPrices deletes the prices hash.
func (s *RedisStore) ClearPrices(ctx context.Context) error {
	if err := s.client.Del(ctx, s.pricesKey).Err(); err != nil {
		return fmt.Errorf("clear prices: %w", err)
	}
	return nil
}

func redisRows[T any](ctx context.Context, client redis.UniversalClient, key string, id func(T) string) ([]T, error) {
	raw, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	out := make([]T, 0, len(raw))
	for field, v := range raw {
		var row T
		if err := json.Unmarshal([]byte(v), &row); err != nil {
			return nil, fmt.Errorf("decode %s[%s]: %w", key, field, err)
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out, nil
}

func redisValues[T any](rows []T, id func(T) string) (map[string]any, error) {
	out := make(map[string]any, len(rows))
	for _, r := range rows {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode row %s: %w", id(r), err)
		}
		out[id(r)] = string(raw)
	}
	return out, nil
}
