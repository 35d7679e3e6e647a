package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseDecimal rejects malformed numeric input instead of coercing it to
// zero. Quantities and prices flow straight into totals, so a silent zero
// would corrupt a sale.
func ParseDecimal(raw, field string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "numeric value required").WithDetails(map[string]any{"field": field})
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "value must be a decimal number").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

// ParseOptionalDecimal returns nil when the input is absent and a validation
// error when it is present but malformed.
func ParseOptionalDecimal(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value, err := ParseDecimal(*raw, field)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// ParseUUIDParam reads a chi URL parameter as a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier required").WithDetails(map[string]any{"field": key})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// TerminalParam reads the terminal path segment, which is a free-form
// register name rather than a uuid.
func TerminalParam(r *http.Request) (string, error) {
	terminal := strings.TrimSpace(chi.URLParam(r, "terminal"))
	if terminal == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "terminal required")
	}
	return terminal, nil
}
