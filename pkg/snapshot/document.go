package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
)

// Document is the exported catalog.
type Document struct {
	Environment string                  `json:"environment"`
	Owner       string                  `json:"owner"`
	GeneratedAt time.Time               `json:"generated_at"`
	Products    []catalog.RemoteProduct `json:"products"`
	Prices      []catalog.RemotePrice   `json:"prices"`
}

// NewDocument keeps the objects of snap managed by owner.
func NewDocument(snap *catalog.Snapshot, env, owner string, now time.Time) Document {
	doc := Document{
		Environment: env,
		Owner:       owner,
		GeneratedAt: now.UTC(),
		Products:    []catalog.RemoteProduct{},
		Prices:      []catalog.RemotePrice{},
	}
	if snap != nil {
		doc.Products = append(doc.Products, catalog.ManagedProducts(snap.Products, owner)...)
		doc.Prices = append(doc.Prices, catalog.ManagedPrices(snap.Prices, owner)...)
	}
	return doc
}

// Sink stores an encoded document.
type Sink interface {
	Write(ctx context.Context, data []byte) error
	// Location is where the document ends up, for logging.
	Location() string
}

// Export encodes doc as indented JSON and writes it to sink.
func Export(ctx context.Context, sink Sink, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')
	return sink.Write(ctx, data)
}
