package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwagger_RegistradoYCubreRutas(t *testing.T) {
	raw, err := swag.ReadDoc("swagger")
	require.NoError(t, err)

	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]any         `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "Stock Ledger API", doc.Info.Title)
	for _, p := range []string{
		"/api/inventory/adjustments",
		"/api/inventory/transfers",
		"/api/inventory/transfers/batch",
		"/api/inventory/stock-levels/{productId}/{locationId}",
		"/api/inventory/products/{productId}/movements",
		"/api/inventory/low-stock",
	} {
		assert.Contains(t, doc.Paths, p)
	}
}
