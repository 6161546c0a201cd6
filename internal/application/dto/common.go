package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InsufficientStockResponse cuerpo de error 409 con el detalle de cantidades.
type InsufficientStockResponse struct {
	ErrorResponse
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
	ProductID string `json:"product_id,omitempty"`
}

// ListResponse envoltorio para listados.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
