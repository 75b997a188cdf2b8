package valuation

import (
	"errors"
	"fmt"
	"time"

	"github.com/colletr/colletr/backend/internal/models"
)

// ErrNoPayload is returned when the model answered but no JSON object could
// be extracted from its text.
var ErrNoPayload = errors.New("no JSON payload in model response")

// IdentificationError wraps any failure of the identify call. Handlers map
// it to a gateway error so the client can offer manual entry.
type IdentificationError struct {
	Err error
}

func (e *IdentificationError) Error() string {
	return fmt.Sprintf("identification failed: %v", e.Err)
}

func (e *IdentificationError) Unwrap() error { return e.Err }

// ValuationError wraps any failure of the valuate call. Callers substitute
// a fallback valuation instead of failing the request.
type ValuationError struct {
	Err error
}

func (e *ValuationError) Error() string {
	return fmt.Sprintf("valuation failed: %v", e.Err)
}

func (e *ValuationError) Unwrap() error { return e.Err }

// FallbackValuation is the zero-valued estimate substituted when the
// gateway fails; items stay usable and can be re-valued later.
func FallbackValuation() *models.Valuation {
	return &models.Valuation{
		Currency:    "BRL",
		LastUpdated: time.Now(),
		Reasoning:   "Não foi possível consultar o serviço de preços. Tente novamente mais tarde.",
	}
}
