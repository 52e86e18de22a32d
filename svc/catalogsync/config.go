package catalogsync

import (
	"log/slog"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/logger"
)

// Storage adapters accepted by DB_ADAPTER and -adapter.
const (
	AdapterPostgres = "postgres"
	AdapterMySQL    = "mysql"
	AdapterMongo    = "mongo"
	AdapterRedis    = "redis"
	AdapterMemory   = "memory"
)

// Billing providers accepted by BILLING_PROVIDER.
const (
	ProviderStripe = "stripe"
	ProviderPaddle = "paddle"
)

// Config holds the application settings.
type Config struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	Provider  string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	Adapter   string `env:"DB_ADAPTER" envDefault:"postgres"`
	PlansFile string `env:"PLANS_FILE" envDefault:"plans.yaml"`

	Owner        string `env:"CATALOG_OWNER_TAG" envDefault:"catalogsync"`
	ProductIDKey string `env:"CATALOG_PRODUCT_ID_KEY" envDefault:"internal_product_id"`
	PriceIDKey   string `env:"CATALOG_PRICE_ID_KEY" envDefault:"internal_price_id"`
	ManagedByKey string `env:"CATALOG_MANAGED_BY_KEY" envDefault:"managed_by"`
	PageSize     int64  `env:"CATALOG_PAGE_SIZE" envDefault:"100"`

	LogFormat string `env:"LOG_FORMAT"`
	LogLevel  string `env:"LOG_LEVEL"`
}

// MetadataKeys returns the configured correlation keys.
func (c Config) MetadataKeys() catalog.MetadataKeys {
	return catalog.MetadataKeys{
		ProductID: c.ProductIDKey,
		PriceID:   c.PriceIDKey,
		ManagedBy: c.ManagedByKey,
	}
}

func (c Config) catalogOptions(log *slog.Logger, extra ...catalog.Option) []catalog.Option {
	opts := []catalog.Option{
		catalog.WithLogger(log.With(logger.Component("catalog"))),
		catalog.WithOwner(c.Owner),
		catalog.WithMetadataKeys(c.MetadataKeys()),
		catalog.WithPageSize(c.PageSize),
	}
	return append(opts, extra...)
}
