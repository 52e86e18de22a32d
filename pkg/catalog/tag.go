package catalog

import "maps"

// Reserved metadata keys written next to the correlation tag.
const (
	FeaturesKey    = "features"
	ProductTypeKey = "product_type"
	PlanNameKey    = "plan_name"
	TierKey        = "tier"
)

// DefaultOwner is the managed_by value used when none is configured.
const DefaultOwner = "catalogsync"

// MetadataKeys names the metadata fields that carry correlation data.
// They are part of the wire contract with the provider and must stay stable
// across releases for a given account.
type MetadataKeys struct {
	ProductID string
	PriceID   string
	ManagedBy string
}

// DefaultMetadataKeys returns the keys used when none are configured:
// internal_product_id, internal_price_id and managed_by.
func DefaultMetadataKeys() MetadataKeys {
	return MetadataKeys{
		ProductID: "internal_product_id",
		PriceID:   "internal_price_id",
		ManagedBy: "managed_by",
	}
}

func (k MetadataKeys) withDefaults() MetadataKeys {
	d := DefaultMetadataKeys()
	if k.ProductID == "" {
		k.ProductID = d.ProductID
	}
	if k.PriceID == "" {
		k.PriceID = d.PriceID
	}
	if k.ManagedBy == "" {
		k.ManagedBy = d.ManagedBy
	}
	return k
}

// CorrelationTag links a remote object back to its declaration.
type CorrelationTag struct {
	InternalID string `json:"internal_id"`
	Owner      string `json:"owner,omitempty"`
}

// IsZero reports whether the object carries no internal id.
func (t CorrelationTag) IsZero() bool {
	return t.InternalID == ""
}

// Managed reports whether the object is tagged and owned by owner.
func (t CorrelationTag) Managed(owner string) bool {
	return t.InternalID != "" && t.Owner == owner
}

// EncodeProductTag returns a copy of md with the product tag written into it.
func (k MetadataKeys) EncodeProductTag(t CorrelationTag, md map[string]string) map[string]string {
	return k.encode(k.ProductID, t, md)
}

// DecodeProductTag reads the product tag from md.
func (k MetadataKeys) DecodeProductTag(md map[string]string) CorrelationTag {
	return CorrelationTag{InternalID: md[k.ProductID], Owner: md[k.ManagedBy]}
}

// EncodePriceTag returns a copy of md with the price tag written into it.
func (k MetadataKeys) EncodePriceTag(t CorrelationTag, md map[string]string) map[string]string {
	return k.encode(k.PriceID, t, md)
}

// DecodePriceTag reads the price tag from md.
func (k MetadataKeys) DecodePriceTag(md map[string]string) CorrelationTag {
	return CorrelationTag{InternalID: md[k.PriceID], Owner: md[k.ManagedBy]}
}

func (k MetadataKeys) encode(idKey string, t CorrelationTag, md map[string]string) map[string]string {
	out := make(map[string]string, len(md)+2)
	maps.Copy(out, md)
	out[idKey] = t.InternalID
	if t.Owner != "" {
		out[k.ManagedBy] = t.Owner
	}
	return out
}

// annotateProduct fills the decoded tag on p.
func (k MetadataKeys) annotateProduct(p *RemoteProduct) {
	p.Tag = k.DecodeProductTag(p.Metadata)
}

// annotatePrice fills the decoded tag and product linkage on p.
func (k MetadataKeys) annotatePrice(p *RemotePrice) {
	p.Tag = k.DecodePriceTag(p.Metadata)
	p.InternalProductID = p.Metadata[k.ProductID]
}
