package handlers

import (
	"encoding/json"
	"testing"

	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockScoreboard struct {
	mock.Mock
}

func (m *MockScoreboard) TopN(n int) ([]model.LeaderboardEntry, error) {
	args := m.Called(n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaderboardEntry), args.Error(1)
}

func (m *MockScoreboard) Score(accountID int64) (int64, error) {
	args := m.Called(accountID)
	return args.Get(0).(int64), args.Error(1)
}

func TestLeaderboardHandler_Top(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		board := new(MockScoreboard)
		handler := NewLeaderboardHandler(board)

		board.On("TopN", 10).Return([]model.LeaderboardEntry{
			{AccountID: 2, Coins: 300},
			{AccountID: 1, Coins: 100},
		}, nil)

		ctx := setupTestContext("GET", "/leaderboard", nil)
		handler.Top(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var resp leaderboardResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		require.Len(t, resp.Items, 2)
		assert.Equal(t, int64(2), resp.Items[0].AccountID)
	})

	t.Run("empty board serializes as empty list", func(t *testing.T) {
		board := new(MockScoreboard)
		handler := NewLeaderboardHandler(board)

		board.On("TopN", 5).Return([]model.LeaderboardEntry(nil), nil)

		ctx := setupTestContext("GET", "/leaderboard?limit=5", nil)
		handler.Top(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), `"items":[]`)
	})

	t.Run("out-of-range limit falls back to default", func(t *testing.T) {
		board := new(MockScoreboard)
		handler := NewLeaderboardHandler(board)

		board.On("TopN", 10).Return([]model.LeaderboardEntry{}, nil)

		ctx := setupTestContext("GET", "/leaderboard?limit=5000", nil)
		handler.Top(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		board.AssertExpectations(t)
	})
}

func TestLeaderboardHandler_AccountScore(t *testing.T) {
	board := new(MockScoreboard)
	handler := NewLeaderboardHandler(board)

	board.On("Score", int64(7)).Return(int64(150), nil)

	ctx := setupTestContext("GET", "/leaderboard/accounts/7", nil)
	ctx.SetUserValue("id", "7")
	handler.AccountScore(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())

	var resp model.LeaderboardEntry
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, int64(150), resp.Coins)
}
