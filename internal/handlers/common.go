package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/mythicalsystems/dash-ledger/internal/repository"
	"github.com/mythicalsystems/dash-ledger/internal/services"
	xhttp "github.com/mythicalsystems/dash-ledger/pkg/http"
)

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, code, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg, ErrorCode: code})
}

// writeServiceError maps the typed service errors onto the API's status
// codes. Unrecognized errors are reported as a generic 500 so internals
// never leak to clients.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrAccountNotFound), errors.Is(err, repository.ErrAccountNotFound):
		writeError(ctx, 404, "account_not_found", err.Error())
	case errors.Is(err, services.ErrCodeNotFound), errors.Is(err, repository.ErrCodeNotFound):
		writeError(ctx, 404, "code_not_found", err.Error())
	case errors.Is(err, services.ErrAlreadyRedeemed), errors.Is(err, repository.ErrAlreadyRedeemed):
		writeError(ctx, 409, "already_redeemed", err.Error())
	case errors.Is(err, services.ErrCodeExhausted), errors.Is(err, repository.ErrCodeExhausted):
		writeError(ctx, 409, "code_exhausted", err.Error())
	case errors.Is(err, services.ErrInsufficientFunds), errors.Is(err, repository.ErrInsufficientFunds):
		writeError(ctx, 402, "insufficient_funds", err.Error())
	case errors.Is(err, services.ErrInvalidAmount):
		writeError(ctx, 400, "invalid_amount", err.Error())
	case errors.Is(err, services.ErrEffectFailed):
		writeError(ctx, 500, "effect_failed", err.Error())
	default:
		writeError(ctx, 500, "internal_error", "internal error")
	}
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, ok := ctx.UserValue(name).(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(v, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryInt(ctx *xhttp.RequestCtx, key string, def int) int {
	if v := query(ctx, key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
