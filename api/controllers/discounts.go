package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/api/responses"
	"github.com/lankapos/pos-backend/api/validators"
	discountsvc "github.com/lankapos/pos-backend/internal/discounts"
	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
)

func DiscountRuleCreate(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		var payload discountRuleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateRule(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newDiscountRuleResponse(record))
	}
}

func DiscountRuleUpdate(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload discountRuleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateRule(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDiscountRuleResponse(record))
	}
}

func DiscountRuleGet(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetRule(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDiscountRuleResponse(record))
	}
}

func DiscountRuleDelete(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRule(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func DiscountRuleList(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		records, err := svc.ListRules(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]discountRuleResponse, 0, len(records))
		for i := range records {
			items = append(items, newDiscountRuleResponse(&records[i]))
		}

		responses.WriteSuccess(w, items)
	}
}

type discountRuleRequest struct {
	Name          string          `json:"name" validate:"required"`
	RuleType      string          `json:"rule_type" validate:"required"`
	Target        *string         `json:"target"`
	DiscountType  string          `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value" validate:"required"`
	MaxDiscount   decimal.Decimal `json:"max_discount"`
	MinQuantity   decimal.Decimal `json:"min_quantity"`
	MaxQuantity   decimal.Decimal `json:"max_quantity"`
	AutoApply     *bool           `json:"auto_apply"`
	IsActive      *bool           `json:"is_active"`
}

func (p discountRuleRequest) toInput() discountsvc.RuleInput {
	autoApply := true
	if p.AutoApply != nil {
		autoApply = *p.AutoApply
	}
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return discountsvc.RuleInput{
		Name:          p.Name,
		RuleType:      p.RuleType,
		Target:        p.Target,
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
		MaxDiscount:   p.MaxDiscount,
		MinQuantity:   p.MinQuantity,
		MaxQuantity:   p.MaxQuantity,
		AutoApply:     autoApply,
		IsActive:      active,
	}
}

type discountRuleResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	RuleType      string          `json:"rule_type"`
	Target        *string         `json:"target,omitempty"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MaxDiscount   decimal.Decimal `json:"max_discount"`
	MinQuantity   decimal.Decimal `json:"min_quantity"`
	MaxQuantity   decimal.Decimal `json:"max_quantity"`
	AutoApply     bool            `json:"auto_apply"`
	IsActive      bool            `json:"is_active"`
	StartsAt      *time.Time      `json:"starts_at,omitempty"`
	EndsAt        *time.Time      `json:"ends_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func newDiscountRuleResponse(record *models.DiscountRule) discountRuleResponse {
	return discountRuleResponse{
		ID:            record.ID,
		Name:          record.Name,
		RuleType:      string(record.RuleType),
		Target:        record.Target,
		DiscountType:  string(record.DiscountType),
		DiscountValue: record.DiscountValue,
		MaxDiscount:   record.MaxDiscount,
		MinQuantity:   record.MinQuantity,
		MaxQuantity:   record.MaxQuantity,
		AutoApply:     record.AutoApply,
		IsActive:      record.IsActive,
		StartsAt:      record.StartsAt,
		EndsAt:        record.EndsAt,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}
