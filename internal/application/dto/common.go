package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ItemError error estructurado por item dentro de una operación por lotes.
// Las cantidades viajan como string decimal para no perder precisión en JSON.
type ItemError struct {
	ItemID    string `json:"item_id"`
	Code      string `json:"code"` // NOT_FOUND, INVALID_QUANTITY, INSUFFICIENT_STOCK, ...
	Message   string `json:"message"`
	Available string `json:"available,omitempty"`
	Requested string `json:"requested,omitempty"`
	Reserved  string `json:"reserved,omitempty"`
}
