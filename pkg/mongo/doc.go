// Package mongo connects to MongoDB with the official v2 driver and selects
// the database the catalog mirror lives in.
//
// # Usage
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	store, err := mirror.NewMongoStore(ctx, db)
//
// New returns the bare client when the caller needs several databases. Both
// functions ping the primary before returning, retrying RetryAttempts times
// with RetryInterval between attempts. A cancelled context stops the retries
// early.
//
// The mirror store applies each change set in a multi-document transaction,
// which MongoDB only allows on a replica set or sharded cluster. A standalone
// server works for reads but rejects the writes; run a single-node replica
// set in development.
//
// # Configuration
//
// MONGODB_URL is required. MONGODB_DATABASE defaults to catalogsync. Pool
// sizing (MONGODB_MAX_POOL_SIZE, MONGODB_MIN_POOL_SIZE,
// MONGODB_MAX_CONN_IDLE_TIME), MONGODB_CONNECT_TIMEOUT and the retry settings
// are optional; see the field tags on Config.
//
// # Errors
//
// ErrEmptyDatabaseName is returned by NewWithDatabase before connecting.
// Connection failures are reported as ErrFailedToConnectToMongo joined with
// the last driver error or the context error.
package mongo
