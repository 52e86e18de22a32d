// Package redis connects go-redis clients from a connection URL, retrying
// until the server answers.
//
// It backs the Redis adapter of the local catalog mirror. The client it
// returns is a plain *redis.Client from github.com/redis/go-redis/v9, so
// callers use the upstream API directly once connected.
//
// # Usage
//
// Configuration is usually read from the environment:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// or built by hand:
//
//	cfg := redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		KeyPrefix:      "catalogsync",
//		RetryAttempts:  3,
//		RetryInterval:  2 * time.Second,
//		ConnectTimeout: 30 * time.Second,
//	}
//
// Connect with retries:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := mirror.NewRedisStore(client, cfg.KeyPrefix)
//
// Connect pings after each attempt and gives up when RetryAttempts is
// exhausted, the context is cancelled or ConnectTimeout elapses, whichever
// comes first.
//
// # Configuration
//
// REDIS_URL is required. REDIS_KEY_PREFIX, REDIS_RETRY_ATTEMPTS,
// REDIS_RETRY_INTERVAL and REDIS_CONNECT_TIMEOUT are optional; see the field
// tags on Config for defaults.
//
// # Errors
//
// ErrEmptyConnectionURL is returned before any network activity when the URL
// is missing. ErrFailedToParseRedisConnString and ErrRedisNotReady are joined
// with the underlying go-redis error, so both the sentinel and the cause can
// be matched with errors.Is.
//
// # Testing
//
// The package tests run against github.com/alicebob/miniredis/v2, which is
// also a convenient in-process server for tests of code built on top of it.
package redis
