// Package docs expone la definición OpenAPI de la API para swag y el middleware de Swagger UI.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var swaggerJSON string

// SwaggerInfo metadatos de la API; main puede ajustar Host antes de servir la UI.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Stock Ledger API",
	Description:      "Ledger de inventario por ubicación para salones: ajustes, traslados, niveles y movimientos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  swaggerJSON,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

// JSON devuelve el documento OpenAPI listo para servir.
func JSON() []byte {
	return []byte(SwaggerInfo.ReadDoc())
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
