package leaderboard

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mythicalsystems/dash-ledger/internal/events"
	"github.com/mythicalsystems/dash-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupScoreboard(t *testing.T) (*miniredis.Miniredis, *Scoreboard) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	sb, err := New(adapter, "leaderboard:coins")
	require.NoError(t, err)
	return mr, sb
}

func creditEvent(accountID int64, amount uint64) events.Event {
	ev := events.New(events.KindCredit, accountID)
	ev.Amount = amount
	return ev
}

func TestScoreboard_Apply(t *testing.T) {
	_, sb := setupScoreboard(t)

	require.NoError(t, sb.Apply(creditEvent(1, 100)))
	require.NoError(t, sb.Apply(creditEvent(1, 50)))
	require.NoError(t, sb.Apply(creditEvent(2, 75)))

	score, err := sb.Score(1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), score)

	score, err = sb.Score(2)
	require.NoError(t, err)
	assert.Equal(t, int64(75), score)
}

func TestScoreboard_Apply_DuplicateDelivery(t *testing.T) {
	_, sb := setupScoreboard(t)

	ev := creditEvent(1, 100)
	require.NoError(t, sb.Apply(ev))
	require.NoError(t, sb.Apply(ev))
	require.NoError(t, sb.Apply(ev))

	score, err := sb.Score(1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), score)
}

func TestScoreboard_Apply_IgnoresNonCredits(t *testing.T) {
	_, sb := setupScoreboard(t)

	debit := events.New(events.KindDebit, 1)
	debit.Amount = 40
	require.NoError(t, sb.Apply(debit))

	redeemed := events.New(events.KindCodeRedeemed, 1)
	redeemed.Amount = 100
	require.NoError(t, sb.Apply(redeemed))

	score, err := sb.Score(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), score)
}

func TestScoreboard_TopN(t *testing.T) {
	_, sb := setupScoreboard(t)

	require.NoError(t, sb.Apply(creditEvent(1, 100)))
	require.NoError(t, sb.Apply(creditEvent(2, 300)))
	require.NoError(t, sb.Apply(creditEvent(3, 200)))
	require.NoError(t, sb.Apply(creditEvent(4, 200)))

	top, err := sb.TopN(3)
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.Equal(t, int64(2), top[0].AccountID)
	assert.Equal(t, int64(300), top[0].Coins)
	// equal scores order by account id
	assert.Equal(t, int64(3), top[1].AccountID)
	assert.Equal(t, int64(4), top[2].AccountID)
}

func TestScoreboard_TopN_Empty(t *testing.T) {
	_, sb := setupScoreboard(t)

	top, err := sb.TopN(10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestScoreboard_Score_AbsentAccount(t *testing.T) {
	_, sb := setupScoreboard(t)

	score, err := sb.Score(999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), score)
}
