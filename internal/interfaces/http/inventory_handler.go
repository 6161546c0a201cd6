package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryHandler maneja ajustes, traslados y consultas del ledger de stock (protegido).
type InventoryHandler struct {
	ledger   *inventory.LedgerUseCase
	overview *inventory.StockOverviewUseCase
	access   *inventory.AccessChecker
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, overview *inventory.StockOverviewUseCase, access *inventory.AccessChecker) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, overview: overview, access: access}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

// AdjustStock godoc
// @Summary      Ajustar stock en una ubicación
// @Description  mode=add|subtract|set. Un set al valor actual no registra movimiento (200, movement_id vacío).
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                  false  "Clave para reintentos seguros"
// @Param        body             body    dto.AdjustStockRequest  true   "product_id, location_id, quantity, mode, reason"
// @Success      201  {object}  dto.AdjustStockResponse
// @Success      200  {object}  dto.AdjustStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	salonID, userID := GetSalonID(c), GetUserID(c)
	if salonID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.access.Authorize(c.Context(), salonID, in.ProductID, in.LocationID); err != nil {
		return writeError(c, err)
	}
	res, err := h.ledger.AdjustStock(c.Context(), inventory.AdjustStockInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		Mode:       entity.AdjustmentMode(in.Mode),
		Reason:     in.Reason,
		Actor:      userID,
	})
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusCreated
	if res.MovementID == "" {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.AdjustStockResponse{NewQuantity: res.NewQuantity, MovementID: res.MovementID})
}

// TransferStock godoc
// @Summary      Trasladar stock entre ubicaciones del salón
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                    false  "Clave para reintentos seguros"
// @Param        body             body    dto.TransferStockRequest  true   "product_id, from_location_id, to_location_id, quantity, notes"
// @Success      201  {object}  dto.TransferStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) TransferStock(c *fiber.Ctx) error {
	salonID, userID := GetSalonID(c), GetUserID(c)
	if salonID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.access.Authorize(c.Context(), salonID, in.ProductID, in.FromLocationID, in.ToLocationID); err != nil {
		return writeError(c, err)
	}
	res, err := h.ledger.TransferStock(c.Context(), inventory.TransferStockInput{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Notes:          in.Notes,
		Actor:          userID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferStockResponse{
		FromQuantity: res.FromQuantity,
		ToQuantity:   res.ToQuantity,
		MovementID:   res.MovementID,
	})
}

// TransferStockBatch godoc
// @Summary      Trasladar varios productos entre dos ubicaciones
// @Description  Todo o nada: si un ítem no tiene stock suficiente no se registra ningún movimiento.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                    false  "Clave para reintentos seguros"
// @Param        body             body    dto.TransferBatchRequest  true   "from_location_id, to_location_id, items, notes"
// @Success      201  {object}  dto.TransferBatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/batch [post]
func (h *InventoryHandler) TransferStockBatch(c *fiber.Ctx) error {
	salonID, userID := GetSalonID(c), GetUserID(c)
	if salonID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Items) > inventory.MaxBatchItems {
		return writeError(c, domain.InvalidOperation("demasiados productos en el lote"))
	}
	if err := h.access.Authorize(c.Context(), salonID, "", in.FromLocationID, in.ToLocationID); err != nil {
		return writeError(c, err)
	}
	items := make([]inventory.TransferBatchItem, len(in.Items))
	for i, item := range in.Items {
		if err := h.access.Authorize(c.Context(), salonID, item.ProductID); err != nil {
			return writeError(c, err)
		}
		items[i] = inventory.TransferBatchItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	res, err := h.ledger.TransferBatch(c.Context(), inventory.TransferBatchInput{
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Items:          items,
		Notes:          in.Notes,
		Actor:          userID,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.TransferBatchResponse{Items: make([]dto.TransferBatchItemResponse, len(res.Items))}
	for i, r := range res.Items {
		out.Items[i] = dto.TransferBatchItemResponse{
			ProductID:    items[i].ProductID,
			FromQuantity: r.FromQuantity,
			ToQuantity:   r.ToQuantity,
			MovementID:   r.MovementID,
		}
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetStockLevel godoc
// @Summary      Nivel de stock de un producto en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId   path  string  true  "Producto (UUID)"
// @Param        locationId  path  string  true  "Ubicación (UUID)"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-levels/{productId}/{locationId} [get]
func (h *InventoryHandler) GetStockLevel(c *fiber.Ctx) error {
	salonID := GetSalonID(c)
	if salonID == "" {
		return unauthorized(c)
	}
	productID, locationID := c.Params("productId"), c.Params("locationId")
	if err := h.access.Authorize(c.Context(), salonID, productID, locationID); err != nil {
		return writeError(c, err)
	}
	level, err := h.ledger.GetStockLevel(c.Context(), productID, locationID)
	if err != nil {
		return writeError(c, err)
	}
	if level == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "el producto nunca tuvo stock en esta ubicación"})
	}
	return c.JSON(dto.StockLevelResponse{
		ProductID:  level.ProductID,
		LocationID: level.LocationID,
		Quantity:   level.Quantity,
		UpdatedAt:  level.UpdatedAt,
	})
}

// ListProductMovements godoc
// @Summary      Movimientos de un producto (más antiguo primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "Producto (UUID)"
// @Param        since      query  string  false  "Solo movimientos desde esta fecha (RFC3339)"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{productId}/movements [get]
func (h *InventoryHandler) ListProductMovements(c *fiber.Ctx) error {
	salonID := GetSalonID(c)
	if salonID == "" {
		return unauthorized(c)
	}
	since, err := parseSince(c)
	if err != nil {
		return writeError(c, err)
	}
	productID := c.Params("productId")
	if err := h.access.Authorize(c.Context(), salonID, productID); err != nil {
		return writeError(c, err)
	}
	list, err := h.ledger.ListMovements(c.Context(), productID, since)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementList(list))
}

// ListLocationMovements godoc
// @Summary      Movimientos que tocan una ubicación (más antiguo primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        locationId  path   string  true   "Ubicación (UUID)"
// @Param        since       query  string  false  "Solo movimientos desde esta fecha (RFC3339)"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/locations/{locationId}/movements [get]
func (h *InventoryHandler) ListLocationMovements(c *fiber.Ctx) error {
	salonID := GetSalonID(c)
	if salonID == "" {
		return unauthorized(c)
	}
	since, err := parseSince(c)
	if err != nil {
		return writeError(c, err)
	}
	locationID := c.Params("locationId")
	if err := h.access.Authorize(c.Context(), salonID, "", locationID); err != nil {
		return writeError(c, err)
	}
	list, err := h.ledger.ListLocationMovements(c.Context(), locationID, since)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementList(list))
}

// Reconcile godoc
// @Summary      Verificar niveles de un producto contra el replay de su ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "Producto (UUID)"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{productId}/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	salonID := GetSalonID(c)
	if salonID == "" {
		return unauthorized(c)
	}
	productID := c.Params("productId")
	if err := h.access.Authorize(c.Context(), salonID, productID); err != nil {
		return writeError(c, err)
	}
	report, err := h.ledger.VerifyProduct(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	drifts := make([]dto.DriftDTO, 0, len(report.Drifts))
	for _, d := range report.Drifts {
		drifts = append(drifts, dto.DriftDTO{LocationID: d.LocationID, Stored: d.Stored, Replayed: d.Replayed})
	}
	return c.JSON(dto.ReconciliationResponse{
		ProductID:     report.ProductID,
		Consistent:    report.Consistent,
		MovementCount: report.MovementCount,
		Drifts:        drifts,
		CheckedAt:     report.CheckedAt,
	})
}

// StockByLocation godoc
// @Summary      Qué hay en una ubicación
// @Description  Lista todos los productos del salón con su cantidad en la ubicación (0 si nunca tuvieron stock).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        locationId  path  string  true  "Ubicación (UUID)"
// @Success      200  {object}  dto.ListResponse[dto.StockRowDTO]
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/locations/{locationId}/stock [get]
func (h *InventoryHandler) StockByLocation(c *fiber.Ctx) error {
	salonID := GetSalonID(c)
	if salonID == "" {
		return unauthorized(c)
	}
	locationID := c.Params("locationId")
	if err := h.access.Authorize(c.Context(), salonID, "", locationID); err != nil {
		return writeError(c, err)
	}
	rows, err := h.overview.StockByLocation(c.Context(), salonID, locationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ListResponse[dto.StockRowDTO]{Items: rows, Total: len(rows)})
}

// LowStock godoc
// @Summary      Productos por debajo del punto de reorden
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación (UUID). Vacío = stock global."
// @Success      200  {object}  dto.ListResponse[dto.LowStockItemDTO]
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	salonID := GetSalonID(c)
	if salonID == "" {
		return unauthorized(c)
	}
	locationID := c.Query("location_id")
	if locationID != "" {
		if err := h.access.Authorize(c.Context(), salonID, "", locationID); err != nil {
			return writeError(c, err)
		}
	}
	items, err := h.overview.LowStock(c.Context(), salonID, locationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ListResponse[dto.LowStockItemDTO]{Items: items, Total: len(items)})
}

func parseSince(c *fiber.Ctx) (*time.Time, error) {
	raw := c.Query("since")
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.InvalidOperation("since debe estar en formato RFC3339")
	}
	return &t, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		FromLocationID: optional(m.FromLocationID),
		ToLocationID:   optional(m.ToLocationID),
		Quantity:       m.Quantity,
		MovementType:   m.Type,
		Reason:         optional(m.Reason),
		PerformedBy:    m.PerformedBy,
		OccurredAt:     m.OccurredAt,
	}
}

func toMovementList(list []*entity.StockMovement) dto.ListResponse[dto.MovementResponse] {
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return dto.ListResponse[dto.MovementResponse]{Items: items, Total: len(items)}
}
