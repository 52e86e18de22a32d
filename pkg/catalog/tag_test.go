package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
)

func TestMetadataKeys_TagRoundTrip(t *testing.T) {
	t.Parallel()

	keys := catalog.DefaultMetadataKeys()
	in := map[string]string{"color": "blue"}
	tag := catalog.CorrelationTag{InternalID: "pro", Owner: "catalogsync"}

	md := keys.EncodeProductTag(tag, in)
	assert.Equal(t, map[string]string{
		"color":               "blue",
		"internal_product_id": "pro",
		"managed_by":          "catalogsync",
	}, md)
	assert.Len(t, in, 1, "input is not mutated")
	assert.Equal(t, tag, keys.DecodeProductTag(md))

	pmd := keys.EncodePriceTag(catalog.CorrelationTag{InternalID: "pro-monthly"}, nil)
	assert.Equal(t, map[string]string{"internal_price_id": "pro-monthly"}, pmd)
	assert.Equal(t, "pro-monthly", keys.DecodePriceTag(pmd).InternalID)
	assert.True(t, keys.DecodePriceTag(nil).IsZero())
}

func TestCorrelationTag_Managed(t *testing.T) {
	t.Parallel()

	assert.True(t, catalog.CorrelationTag{InternalID: "a", Owner: "me"}.Managed("me"))
	assert.False(t, catalog.CorrelationTag{InternalID: "a", Owner: "you"}.Managed("me"))
	assert.False(t, catalog.CorrelationTag{Owner: "me"}.Managed("me"))
}
