package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/mythicalsystems/dash-ledger/internal/events"
	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/internal/repository"
	"github.com/mythicalsystems/dash-ledger/internal/services"
	xhttp "github.com/mythicalsystems/dash-ledger/pkg/http"
	"github.com/mythicalsystems/dash-ledger/pkg/logger"
)

type LedgerService interface {
	Debit(ctx context.Context, accountID int64, amount uint64, reference string) error
	Credit(ctx context.Context, accountID int64, amount uint64, reference string) error
	CheckSufficient(ctx context.Context, accountID int64, required uint64) (bool, uint64, error)
	Purchase(ctx context.Context, accountID int64, price uint64, reference string, effect services.Effect) (*model.PurchaseResult, error)
}

type TransactionLister interface {
	List(ctx context.Context, f repository.TransactionFilter) ([]*model.Transaction, int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event) (string, error)
}

type LedgerHandler struct {
	svc       LedgerService
	txns      TransactionLister
	publisher EventPublisher
}

func RegisterLedgerRoutes(e *router.Group, h *LedgerHandler) {
	e.POST("/accounts/{id}/debit", h.Debit)
	e.POST("/accounts/{id}/credit", h.Credit)
	e.GET("/accounts/{id}/balance", h.GetBalance)
	e.POST("/accounts/{id}/purchase", h.Purchase)
	e.GET("/accounts/{id}/transactions", h.ListTransactions)
}

func NewLedgerHandler(svc LedgerService, txns TransactionLister, publisher EventPublisher) *LedgerHandler {
	return &LedgerHandler{
		svc:       svc,
		txns:      txns,
		publisher: publisher,
	}
}

type amountRequest struct {
	Amount    uint64 `json:"amount"`
	Reference string `json:"reference"`
}

type purchaseRequest struct {
	Price     uint64 `json:"price"`
	Item      string `json:"item"`
	Reference string `json:"reference"`
}

type balanceResponse struct {
	Balance    uint64 `json:"balance"`
	Sufficient *bool  `json:"sufficient,omitempty"`
}

type transactionListResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

func (h *LedgerHandler) Debit(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid_account_id", "account id must be an integer")
		return
	}

	var req amountRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.Debit(ctx, id, req.Amount, req.Reference); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "debited"})
}

func (h *LedgerHandler) Credit(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid_account_id", "account id must be an integer")
		return
	}

	var req amountRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.Credit(ctx, id, req.Amount, req.Reference); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "credited"})
}

func (h *LedgerHandler) GetBalance(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid_account_id", "account id must be an integer")
		return
	}

	resp := balanceResponse{}
	if v := query(ctx, "required"); v != "" {
		required := uint64(queryInt(ctx, "required", 0))
		ok, balance, err := h.svc.CheckSufficient(ctx, id, required)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		resp.Balance = balance
		resp.Sufficient = &ok
	} else {
		_, balance, err := h.svc.CheckSufficient(ctx, id, 0)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		resp.Balance = balance
	}

	writeJSON(ctx, 200, resp)
}

func (h *LedgerHandler) Purchase(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid_account_id", "account id must be an integer")
		return
	}

	var req purchaseRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	reference := req.Reference
	if reference == "" {
		reference = "purchase:" + req.Item
	}

	result, err := h.svc.Purchase(ctx, id, req.Price, reference, h.grantEffect(id, req.Item))
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) && result != nil {
			// decline quote rides along with the insufficient-funds error
			writeJSON(ctx, 402, map[string]any{
				"error":      err.Error(),
				"error_code": "insufficient_funds",
				"required":   result.Required,
				"available":  result.Available,
			})
			return
		}
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, 200, result)
}

// grantEffect publishes the item grant once the debit has committed. The
// grant itself is delivered through the event stream; a lost publish shows
// up as ErrEffectFailed with the debit already applied.
func (h *LedgerHandler) grantEffect(accountID int64, item string) services.Effect {
	if h.publisher == nil || item == "" {
		return nil
	}
	return func(ctx context.Context) error {
		ev := events.New(events.KindItemGranted, accountID)
		ev.Reference = item
		if _, err := h.publisher.Publish(ctx, ev); err != nil {
			logger.Error("failed to publish item grant", "account_id", accountID, "item", item, "error", err)
			return err
		}
		return nil
	}
}

func (h *LedgerHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid_account_id", "account id must be an integer")
		return
	}

	f := repository.TransactionFilter{
		AccountID: &id,
		Limit:     queryInt(ctx, "limit", 50),
		Offset:    queryInt(ctx, "offset", 0),
	}
	if v := query(ctx, "type"); v != "" {
		f.Type = &v
	}

	items, total, err := h.txns.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, transactionListResponse{Items: items, Total: total})
}
