package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/api/responses"
	"github.com/lankapos/pos-backend/api/validators"
	loyaltysvc "github.com/lankapos/pos-backend/internal/loyalty"
	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
)

func LoyaltySettingsGet(svc loyaltysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		settings, err := svc.Settings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newLoyaltySettingsResponse(settings))
	}
}

func LoyaltySettingsUpdate(svc loyaltysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		var payload loyaltySettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateSettings(r.Context(), payload.toModel())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newLoyaltySettingsResponse(updated))
	}
}

// LoyaltyBalance returns one customer's point balance and tier.
func LoyaltyBalance(svc loyaltysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		customerID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balance)
	}
}

// LoyaltyHistory lists a customer's recent point transactions.
func LoyaltyHistory(svc loyaltysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		customerID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.History(r.Context(), customerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]loyaltyTxResponse, 0, len(records))
		for i := range records {
			items = append(items, newLoyaltyTxResponse(&records[i]))
		}

		responses.WriteSuccess(w, items)
	}
}

type loyaltySettingsRequest struct {
	Enabled              bool            `json:"enabled"`
	PointsPerCurrency    decimal.Decimal `json:"points_per_currency" validate:"required"`
	CurrencyPerPoint     decimal.Decimal `json:"currency_per_point" validate:"required"`
	MinPurchaseForPoints decimal.Decimal `json:"min_purchase_for_points"`
	MinPointsForRedeem   decimal.Decimal `json:"min_points_for_redeem"`
	MaxRedemptionPercent decimal.Decimal `json:"max_redemption_percent"`
	SilverThreshold      decimal.Decimal `json:"silver_threshold"`
	GoldThreshold        decimal.Decimal `json:"gold_threshold"`
	PlatinumThreshold    decimal.Decimal `json:"platinum_threshold"`
	SilverMultiplier     decimal.Decimal `json:"silver_multiplier"`
	GoldMultiplier       decimal.Decimal `json:"gold_multiplier"`
	PlatinumMultiplier   decimal.Decimal `json:"platinum_multiplier"`
}

func (p loyaltySettingsRequest) toModel() *models.LoyaltySettings {
	return &models.LoyaltySettings{
		Enabled:              p.Enabled,
		PointsPerCurrency:    p.PointsPerCurrency,
		CurrencyPerPoint:     p.CurrencyPerPoint,
		MinPurchaseForPoints: p.MinPurchaseForPoints,
		MinPointsForRedeem:   p.MinPointsForRedeem,
		MaxRedemptionPercent: p.MaxRedemptionPercent,
		SilverThreshold:      p.SilverThreshold,
		GoldThreshold:        p.GoldThreshold,
		PlatinumThreshold:    p.PlatinumThreshold,
		SilverMultiplier:     p.SilverMultiplier,
		GoldMultiplier:       p.GoldMultiplier,
		PlatinumMultiplier:   p.PlatinumMultiplier,
	}
}

type loyaltySettingsResponse struct {
	Enabled              bool            `json:"enabled"`
	PointsPerCurrency    decimal.Decimal `json:"points_per_currency"`
	CurrencyPerPoint     decimal.Decimal `json:"currency_per_point"`
	MinPurchaseForPoints decimal.Decimal `json:"min_purchase_for_points"`
	MinPointsForRedeem   decimal.Decimal `json:"min_points_for_redeem"`
	MaxRedemptionPercent decimal.Decimal `json:"max_redemption_percent"`
	SilverThreshold      decimal.Decimal `json:"silver_threshold"`
	GoldThreshold        decimal.Decimal `json:"gold_threshold"`
	PlatinumThreshold    decimal.Decimal `json:"platinum_threshold"`
	SilverMultiplier     decimal.Decimal `json:"silver_multiplier"`
	GoldMultiplier       decimal.Decimal `json:"gold_multiplier"`
	PlatinumMultiplier   decimal.Decimal `json:"platinum_multiplier"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func newLoyaltySettingsResponse(record *models.LoyaltySettings) loyaltySettingsResponse {
	return loyaltySettingsResponse{
		Enabled:              record.Enabled,
		PointsPerCurrency:    record.PointsPerCurrency,
		CurrencyPerPoint:     record.CurrencyPerPoint,
		MinPurchaseForPoints: record.MinPurchaseForPoints,
		MinPointsForRedeem:   record.MinPointsForRedeem,
		MaxRedemptionPercent: record.MaxRedemptionPercent,
		SilverThreshold:      record.SilverThreshold,
		GoldThreshold:        record.GoldThreshold,
		PlatinumThreshold:    record.PlatinumThreshold,
		SilverMultiplier:     record.SilverMultiplier,
		GoldMultiplier:       record.GoldMultiplier,
		PlatinumMultiplier:   record.PlatinumMultiplier,
		UpdatedAt:            record.UpdatedAt,
	}
}

type loyaltyTxResponse struct {
	ID           uuid.UUID       `json:"id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	TxType       string          `json:"tx_type"`
	Points       decimal.Decimal `json:"points"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Reference    *string         `json:"reference,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func newLoyaltyTxResponse(record *models.LoyaltyTransaction) loyaltyTxResponse {
	return loyaltyTxResponse{
		ID:           record.ID,
		CustomerID:   record.CustomerID,
		TxType:       string(record.TxType),
		Points:       record.Points,
		BalanceAfter: record.BalanceAfter,
		Reference:    record.Reference,
		Description:  record.Description,
		CreatedAt:    record.CreatedAt,
	}
}
