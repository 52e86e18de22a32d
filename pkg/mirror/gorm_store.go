package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MySQLConfig holds the MySQL connection settings for the gorm store.
type MySQLConfig struct {
	DSN             string        `env:"MYSQL_DSN,required"` // user:pass@tcp(localhost:3306)/catalog?parseTime=true
	MaxOpenConns    int           `env:"MYSQL_MAX_OPEN_CONNS" envDefault:"4"`
	MaxIdleConns    int           `env:"MYSQL_MAX_IDLE_CONNS" envDefault:"1"`
	ConnMaxLifetime time.Duration `env:"MYSQL_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// OpenMySQL opens a gorm connection to MySQL and pings it.
func OpenMySQL(ctx context.Context, cfg MySQLConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, ErrEmptyDSN
	}
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}
	return db, nil
}

type gormProduct struct {
	ID                string `gorm:"primaryKey;size:191"`
	RemoteID          string `gorm:"size:191;not null"`
	Name              string `gorm:"size:255;not null"`
	Description       string `gorm:"type:text"`
	Active            bool   `gorm:"not null;default:true"`
	Type              string `gorm:"size:32"`
	MarketingFeatures datatypes.JSON
	Features          datatypes.JSON
	Metadata          datatypes.JSON
	SyncedAt          time.Time
}

func (gormProduct) TableName() string { return "catalog_products" }

type gormPrice struct {
	ID              string `gorm:"primaryKey;size:191"`
	RemoteID        string `gorm:"size:191;not null"`
	ProductID       string `gorm:"size:191;not null;index"`
	RemoteProductID string `gorm:"size:191;not null"`
	Currency        string `gorm:"size:3;not null"`
	UnitAmount      *int64
	Interval        string `gorm:"column:billing_interval;size:16"`
	IntervalCount   int64
	UsageType       string `gorm:"size:16"`
	Nickname        string `gorm:"size:255"`
	Active          bool   `gorm:"not null;default:true"`
	Metadata        datatypes.JSON
	SyncedAt        time.Time
}

func (gormPrice) TableName() string { return "catalog_prices" }

// GormStore is a Store on any gorm dialect; OpenMySQL provides the MySQL one.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the mirror tables and returns the store.
func NewGormStore(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&gormProduct{}, &gormPrice{}); err != nil {
		return nil, fmt.Errorf("migrate mirror tables: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Products returns every mirrored product ordered by id.
func (s *GormStore) Products(ctx context.Context) ([]ProductRow, error) {
	var models []gormProduct
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	out := make([]ProductRow, 0, len(models))
	for _, m := range models {
		r, err := m.row()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Prices returns every mirrored price ordered by id.
func (s *GormStore) Prices(ctx context.Context) ([]PriceRow, error) {
	var models []gormPrice
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	out := make([]PriceRow, 0, len(models))
	for _, m := range models {
		r, err := m.row()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ApplyProducts runs the change set in one gorm transaction. Prices of
// deleted products are removed first.
func (s *GormStore) ApplyProducts(ctx context.Context, cs ChangeSet[ProductRow]) error {
	inserts, err := mapRows(cs.Insert, newGormProduct)
	if err != nil {
		return err
	}
	updates, err := mapRows(cs.Update, newGormProduct)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(inserts) > 0 {
			if err := tx.Create(&inserts).Error; err != nil {
				return fmt.Errorf("insert products: %w", err)
			}
		}
		for i := range updates {
			if err := tx.Save(&updates[i]).Error; err != nil {
				return fmt.Errorf("update product %s: %w", updates[i].ID, err)
			}
		}
		if len(cs.Delete) > 0 {
			if err := tx.Where("product_id IN ?", cs.Delete).Delete(&gormPrice{}).Error; err != nil {
				return fmt.Errorf("delete product prices: %w", err)
			}
			if err := tx.Where("id IN ?", cs.Delete).Delete(&gormProduct{}).Error; err != nil {
				return fmt.Errorf("delete products: %w", err)
			}
		}
		return nil
	})
}

// ApplyPrices runs the change set in one gorm transaction.
func (s *GormStore) ApplyPrices(ctx context.Context, cs ChangeSet[PriceRow]) error {
	inserts, err := mapRows(cs.Insert, newGormPrice)
	if err != nil {
		return err
	}
	updates, err := mapRows(cs.Update, newGormPrice)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(inserts) > 0 {
			if err := tx.Create(&inserts).Error; err != nil {
				return fmt.Errorf("insert prices: %w", err)
			}
		}
		for i := range updates {
			if err := tx.Save(&updates[i]).Error; err != nil {
				return fmt.Errorf("update price %s: %w", updates[i].ID, err)
			}
		}
		if len(cs.Delete) > 0 {
			if err := tx.Where("id IN ?", cs.Delete).Delete(&gormPrice{}).Error; err != nil {
				return fmt.Errorf("delete prices: %w", err)
			}
		}
		return nil
	})
}

// ClearProducts deletes all products and their prices.
func (s *GormStore) ClearProducts(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&gormPrice{}).Error; err != nil {
			return fmt.Errorf("clear prices: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&gormProduct{}).Error; err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		return nil
	})
}

// ClearPrices deletes all prices.
func (s *GormStore) ClearPrices(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&gormPrice{}).Error; err != nil {
		return fmt.Errorf("clear prices: %w", err)
	}
	return nil
}

func newGormProduct(r ProductRow) (gormProduct, error) {
	mf, err1 := json.Marshal(nonNilSlice(r.MarketingFeatures))
	features, err2 := json.Marshal(nonNilMap(r.Features))
	md, err3 := json.Marshal(nonNilMap(r.Metadata))
	if err := errors.Join(err1, err2, err3); err != nil {
		return gormProduct{}, fmt.Errorf("encode product %s: %w", r.ID, err)
	}
	return gormProduct{
		ID:                r.ID,
		RemoteID:          r.RemoteID,
		Name:              r.Name,
		Description:       r.Description,
		Active:            r.Active,
		Type:              r.Type,
		MarketingFeatures: datatypes.JSON(mf),
		Features:          datatypes.JSON(features),
		Metadata:          datatypes.JSON(md),
		SyncedAt:          r.SyncedAt,
	}, nil
}

func (m gormProduct) row() (ProductRow, error) {
	r := ProductRow{
		ID:          m.ID,
		RemoteID:    m.RemoteID,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
		Type:        m.Type,
		SyncedAt:    m.SyncedAt.UTC(),
	}
	if err := errors.Join(
		decodeJSON(m.MarketingFeatures, &r.MarketingFeatures),
		decodeJSON(m.Features, &r.Features),
		decodeJSON(m.Metadata, &r.Metadata),
	); err != nil {
		return ProductRow{}, fmt.Errorf("decode product %s: %w", m.ID, err)
	}
	return r, nil
}

func newGormPrice(r PriceRow) (gormPrice, error) {
	md, err := json.Marshal(nonNilMap(r.Metadata))
	if err != nil {
		return gormPrice{}, fmt.Errorf("encode price %s: %w", r.ID, err)
	}
	return gormPrice{
		ID:              r.ID,
		RemoteID:        r.RemoteID,
		ProductID:       r.ProductID,
		RemoteProductID: r.RemoteProductID,
		Currency:        r.Currency,
		UnitAmount:      r.UnitAmount,
		Interval:        r.Interval,
		IntervalCount:   r.IntervalCount,
		UsageType:       r.UsageType,
		Nickname:        r.Nickname,
		Active:          r.Active,
		Metadata:        datatypes.JSON(md),
		SyncedAt:        r.SyncedAt,
	}, nil
}

func (m gormPrice) row() (PriceRow, error) {
	r := PriceRow{
		ID:              m.ID,
		RemoteID:        m.RemoteID,
		ProductID:       m.ProductID,
		RemoteProductID: m.RemoteProductID,
		Currency:        m.Currency,
		UnitAmount:      m.UnitAmount,
		Interval:        m.Interval,
		IntervalCount:   m.IntervalCount,
		UsageType:       m.UsageType,
		Nickname:        m.Nickname,
		Active:          m.Active,
		SyncedAt:        m.SyncedAt.UTC(),
	}
	if err := decodeJSON(m.Metadata, &r.Metadata); err != nil {
		return PriceRow{}, fmt.Errorf("decode price %s: %w", m.ID, err)
	}
	return r, nil
}

func decodeJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func mapRows[R, M any](rows []R, fn func(R) (M, error)) ([]M, error) {
	out := make([]M, 0, len(rows))
	for _, r := range rows {
		m, err := fn(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
