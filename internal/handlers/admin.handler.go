package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/internal/repository"
	xhttp "github.com/mythicalsystems/dash-ledger/pkg/http"
)

type CodeAdminService interface {
	Create(ctx context.Context, code *model.RedeemCode) (*model.RedeemCode, error)
	SetEnabled(ctx context.Context, code string, enabled bool) error
	SoftDelete(ctx context.Context, code string) error
	List(ctx context.Context, f repository.RedeemCodeFilter) ([]*model.RedeemCode, int64, error)
}

type AccountAdminService interface {
	Create(ctx context.Context, account *model.Account) (*model.Account, error)
	Get(ctx context.Context, id int64) (*model.Account, error)
	SoftDelete(ctx context.Context, id int64) error
}

type AdminHandler struct {
	codes    CodeAdminService
	accounts AccountAdminService
}

func RegisterAdminRoutes(e *router.Group, h *AdminHandler) {
	e.POST("/codes", h.CreateCode)
	e.GET("/codes", h.ListCodes)
	e.PATCH("/codes/{code}/enabled", h.SetCodeEnabled)
	e.DELETE("/codes/{code}", h.DeleteCode)
	e.POST("/accounts", h.CreateAccount)
	e.GET("/accounts/{id}", h.GetAccount)
	e.DELETE("/accounts/{id}", h.DeleteAccount)
}

func NewAdminHandler(codes CodeAdminService, accounts AccountAdminService) *AdminHandler {
	return &AdminHandler{
		codes:    codes,
		accounts: accounts,
	}
}

type createCodeRequest struct {
	Code    string `json:"code"`
	Coins   uint64 `json:"coins"`
	Uses    uint   `json:"uses"`
	Enabled *bool  `json:"enabled"`
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type createAccountRequest struct {
	Username string `json:"username"`
	Credits  uint64 `json:"credits"`
}

type codeListResponse struct {
	Items []*model.RedeemCode `json:"items"`
	Total int64               `json:"total"`
}

func (h *AdminHandler) CreateCode(ctx *xhttp.RequestCtx) {
	var req createCodeRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(ctx, 400, "missing_code", "code is required")
		return
	}
	if req.Uses == 0 {
		writeError(ctx, 400, "invalid_uses", "uses must be positive")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	code, err := h.codes.Create(ctx, &model.RedeemCode{
		Code:          req.Code,
		Coins:         req.Coins,
		UsesRemaining: req.Uses,
		Enabled:       enabled,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, code)
}

func (h *AdminHandler) ListCodes(ctx *xhttp.RequestCtx) {
	f := repository.RedeemCodeFilter{
		Limit:  queryInt(ctx, "limit", 50),
		Offset: queryInt(ctx, "offset", 0),
	}
	if v := query(ctx, "enabled"); v != "" {
		enabled := v == "true"
		f.Enabled = &enabled
	}

	items, total, err := h.codes.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, codeListResponse{Items: items, Total: total})
}

func (h *AdminHandler) SetCodeEnabled(ctx *xhttp.RequestCtx) {
	code, ok := ctx.UserValue("code").(string)
	if !ok || code == "" {
		writeError(ctx, 400, "missing_code", "code is required")
		return
	}

	var req setEnabledRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	if err := h.codes.SetEnabled(ctx, code, req.Enabled); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]any{"code": code, "enabled": req.Enabled})
}

func (h *AdminHandler) DeleteCode(ctx *xhttp.RequestCtx) {
	code, ok := ctx.UserValue("code").(string)
	if !ok || code == "" {
		writeError(ctx, 400, "missing_code", "code is required")
		return
	}

	if err := h.codes.SoftDelete(ctx, code); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}

func (h *AdminHandler) CreateAccount(ctx *xhttp.RequestCtx) {
	var req createAccountRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(ctx, 400, "missing_username", "username is required")
		return
	}

	account, err := h.accounts.Create(ctx, &model.Account{
		Username: req.Username,
		Credits:  req.Credits,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, account)
}

func (h *AdminHandler) GetAccount(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid_account_id", "account id must be an integer")
		return
	}

	account, err := h.accounts.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, account)
}

func (h *AdminHandler) DeleteAccount(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid_account_id", "account id must be an integer")
		return
	}

	if err := h.accounts.SoftDelete(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}
