package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/mythicalsystems/dash-ledger/internal/model"
	xhttp "github.com/mythicalsystems/dash-ledger/pkg/http"
)

type RedeemService interface {
	RedeemAndCredit(ctx context.Context, code string, accountID int64) (*model.RedemptionResult, error)
	Validate(ctx context.Context, code string, accountID int64) (*model.ValidationResult, error)
}

type RedeemHandler struct {
	svc RedeemService
}

func RegisterRedeemRoutes(e *router.Group, h *RedeemHandler) {
	e.POST("/redeem", h.Redeem)
	e.POST("/redeem/validate", h.Validate)
}

func NewRedeemHandler(svc RedeemService) *RedeemHandler {
	return &RedeemHandler{
		svc: svc,
	}
}

type redeemRequest struct {
	Code      string `json:"code"`
	AccountID int64  `json:"account_id"`
}

func (h *RedeemHandler) Redeem(ctx *xhttp.RequestCtx) {
	var req redeemRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(ctx, 400, "missing_code", "code is required")
		return
	}
	if req.AccountID <= 0 {
		writeError(ctx, 400, "invalid_account_id", "account_id is required")
		return
	}

	result, err := h.svc.RedeemAndCredit(ctx, req.Code, req.AccountID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, result)
}

func (h *RedeemHandler) Validate(ctx *xhttp.RequestCtx) {
	var req redeemRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(ctx, 400, "missing_code", "code is required")
		return
	}

	result, err := h.svc.Validate(ctx, req.Code, req.AccountID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, result)
}
