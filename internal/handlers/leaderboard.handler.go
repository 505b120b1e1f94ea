package handlers

import (
	"github.com/fasthttp/router"
	"github.com/mythicalsystems/dash-ledger/internal/model"
	xhttp "github.com/mythicalsystems/dash-ledger/pkg/http"
)

type Scoreboard interface {
	TopN(n int) ([]model.LeaderboardEntry, error)
	Score(accountID int64) (int64, error)
}

type LeaderboardHandler struct {
	board Scoreboard
}

func RegisterLeaderboardRoutes(e *router.Group, h *LeaderboardHandler) {
	e.GET("/leaderboard", h.Top)
	e.GET("/leaderboard/accounts/{id}", h.AccountScore)
}

func NewLeaderboardHandler(board Scoreboard) *LeaderboardHandler {
	return &LeaderboardHandler{
		board: board,
	}
}

type leaderboardResponse struct {
	Items []model.LeaderboardEntry `json:"items"`
}

func (h *LeaderboardHandler) Top(ctx *xhttp.RequestCtx) {
	limit := queryInt(ctx, "limit", 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	items, err := h.board.TopN(limit)
	if err != nil {
		writeError(ctx, 500, "internal_error", "internal error")
		return
	}
	if items == nil {
		items = []model.LeaderboardEntry{}
	}
	writeJSON(ctx, 200, leaderboardResponse{Items: items})
}

func (h *LeaderboardHandler) AccountScore(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid_account_id", "account id must be an integer")
		return
	}

	score, err := h.board.Score(id)
	if err != nil {
		writeError(ctx, 500, "internal_error", "internal error")
		return
	}
	writeJSON(ctx, 200, model.LeaderboardEntry{AccountID: id, Coins: score})
}
