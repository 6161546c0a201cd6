package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AccessChecker verifica que producto y ubicaciones existan en el catálogo y
// pertenezcan al salón del usuario antes de tocar el ledger.
type AccessChecker struct {
	catalog repository.CatalogRepository
}

// NewAccessChecker construye el verificador sobre el catálogo.
func NewAccessChecker(catalog repository.CatalogRepository) *AccessChecker {
	return &AccessChecker{catalog: catalog}
}

// Authorize devuelve ErrNotFound si algún recurso no existe y ErrForbidden si es de otro salón.
// productID vacío omite la verificación del producto.
func (c *AccessChecker) Authorize(ctx context.Context, salonID, productID string, locationIDs ...string) error {
	if salonID == "" {
		return domain.ErrForbidden
	}
	if productID != "" {
		if err := validateID("product_id", productID); err != nil {
			return err
		}
		p, err := c.catalog.GetProduct(ctx, productID)
		if err != nil {
			return domain.Persistence(err)
		}
		if p == nil {
			return domain.NotFound("producto")
		}
		if p.SalonID != salonID {
			return fmt.Errorf("%w: el producto pertenece a otro salón", domain.ErrForbidden)
		}
	}
	for _, id := range locationIDs {
		if err := validateID("location_id", id); err != nil {
			return err
		}
		l, err := c.catalog.GetLocation(ctx, id)
		if err != nil {
			return domain.Persistence(err)
		}
		if l == nil {
			return domain.NotFound("ubicación")
		}
		if l.SalonID != salonID {
			return fmt.Errorf("%w: la ubicación pertenece a otro salón", domain.ErrForbidden)
		}
	}
	return nil
}
