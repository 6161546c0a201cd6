package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustStockRequest body para POST /api/inventory/adjustments.
type AdjustStockRequest struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
	Mode       string `json:"mode"` // add | subtract | set
	Reason     string `json:"reason"`
}

// AdjustStockResponse resultado de un ajuste. movement_id vacío si no hubo cambio.
type AdjustStockResponse struct {
	NewQuantity int64  `json:"new_quantity"`
	MovementID  string `json:"movement_id"`
}

// TransferStockRequest body para POST /api/inventory/transfers.
type TransferStockRequest struct {
	ProductID      string `json:"product_id"`
	FromLocationID string `json:"from_location_id"`
	ToLocationID   string `json:"to_location_id"`
	Quantity       int64  `json:"quantity"`
	Notes          string `json:"notes,omitempty"`
}

// TransferStockResponse cantidades resultantes del traslado.
type TransferStockResponse struct {
	FromQuantity int64  `json:"from_quantity"`
	ToQuantity   int64  `json:"to_quantity"`
	MovementID   string `json:"movement_id"`
}

// TransferBatchItemRequest un producto dentro de un traslado en lote.
type TransferBatchItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// TransferBatchRequest body para POST /api/inventory/transfers/batch.
type TransferBatchRequest struct {
	FromLocationID string                     `json:"from_location_id"`
	ToLocationID   string                     `json:"to_location_id"`
	Items          []TransferBatchItemRequest `json:"items"`
	Notes          string                     `json:"notes,omitempty"`
}

// TransferBatchItemResponse resultado de un ítem del lote.
type TransferBatchItemResponse struct {
	ProductID    string `json:"product_id"`
	FromQuantity int64  `json:"from_quantity"`
	ToQuantity   int64  `json:"to_quantity"`
	MovementID   string `json:"movement_id"`
}

// TransferBatchResponse resultados en el orden de la solicitud.
type TransferBatchResponse struct {
	Items []TransferBatchItemResponse `json:"items"`
}

// StockLevelResponse nivel actual de un par (producto, ubicación).
type StockLevelResponse struct {
	ProductID  string    `json:"product_id"`
	LocationID string    `json:"location_id"`
	Quantity   int64     `json:"quantity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MovementResponse un registro del ledger.
type MovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	FromLocationID *string   `json:"from_location_id"`
	ToLocationID   *string   `json:"to_location_id"`
	Quantity       int64     `json:"quantity"`
	MovementType   string    `json:"movement_type"`
	Reason         *string   `json:"reason"`
	PerformedBy    string    `json:"performed_by"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// DriftDTO diferencia entre nivel almacenado y replay del ledger en una ubicación.
type DriftDTO struct {
	LocationID string `json:"location_id"`
	Stored     int64  `json:"stored"`
	Replayed   int64  `json:"replayed"`
}

// ReconciliationResponse resultado de verificar un producto contra su ledger.
type ReconciliationResponse struct {
	ProductID     string     `json:"product_id"`
	Consistent    bool       `json:"consistent"`
	MovementCount int        `json:"movement_count"`
	Drifts        []DriftDTO `json:"drifts"`
	CheckedAt     time.Time  `json:"checked_at"`
}

// StockRowDTO fila de la vista "qué hay dónde".
type StockRowDTO struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SKU            string          `json:"sku"`
	Unit           string          `json:"unit"`
	LocationID     string          `json:"location_id,omitempty"`
	LocationName   string          `json:"location_name,omitempty"`
	Quantity       int64           `json:"quantity"`
	ReorderPoint   decimal.Decimal `json:"reorder_point"`
	BelowThreshold bool            `json:"below_threshold"`
}

// Estados de alerta de stock bajo.
const (
	StockStatusLow        = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// LowStockItemDTO producto por debajo de su punto de reorden.
type LowStockItemDTO struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	SKU           string          `json:"sku"`
	LocationID    string          `json:"location_id,omitempty"`
	LocationName  string          `json:"location_name,omitempty"`
	Quantity      int64           `json:"quantity"`
	ReorderPoint  decimal.Decimal `json:"reorder_point"`
	Deficit       decimal.Decimal `json:"deficit"`        // ReorderPoint - Quantity
	CoverageRatio decimal.Decimal `json:"coverage_ratio"` // Quantity / ReorderPoint, 2 decimales
	Status        string          `json:"status"`
}
