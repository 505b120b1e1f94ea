package leaderboard

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mythicalsystems/dash-ledger/internal/events"
	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/pkg/prom"
	"github.com/mythicalsystems/dash-ledger/pkg/redis"
)

const seenTTL = 24 * time.Hour

// Scoreboard keeps per-account coin totals in a Redis hash, fed by ledger
// credit events. Delivery is at-least-once, so every event id is recorded
// with SETNX before its amount is applied.
type Scoreboard struct {
	adapter redis.RedisAdapter
	key     string
}

func New(adapter redis.RedisAdapter, key string) (*Scoreboard, error) {
	if key == "" {
		return nil, fmt.Errorf("leaderboard key is required")
	}
	return &Scoreboard{adapter: adapter, key: key}, nil
}

// Apply folds one event into the scoreboard. Events that are not credits,
// or that were already applied, are skipped without error.
func (s *Scoreboard) Apply(ev events.Event) error {
	if ev.Kind != events.KindCredit {
		return nil
	}
	if ev.ID == "" {
		return fmt.Errorf("event has no id")
	}

	fresh, err := s.adapter.SetNX(s.key+":seen:"+ev.ID, []byte("1"), seenTTL)
	if err != nil {
		return fmt.Errorf("mark event seen: %w", err)
	}
	if !fresh {
		prom.IncrementCounter(prom.SystemLedger, prom.MetricLeaderboardDuplicates)
		return nil
	}

	field := strconv.FormatInt(ev.AccountID, 10)
	if err := s.adapter.HIncrement(s.key, field, int64(ev.Amount)); err != nil {
		// release the guard so a redelivery can retry
		_ = s.adapter.Del(s.key + ":seen:" + ev.ID)
		return fmt.Errorf("apply credit to scoreboard: %w", err)
	}

	prom.IncrementCounter(prom.SystemLedger, prom.MetricLeaderboardEvents)
	return nil
}

// TopN returns up to n entries ordered by coins descending. Ties break on
// the lower account id for a stable order.
func (s *Scoreboard) TopN(n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive")
	}

	totals, err := s.adapter.HGetAll(s.key)
	if err != nil {
		return nil, fmt.Errorf("read scoreboard: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(totals))
	for field, raw := range totals {
		accountID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		coins, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{AccountID: accountID, Coins: coins})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Coins != entries[j].Coins {
			return entries[i].Coins > entries[j].Coins
		}
		return entries[i].AccountID < entries[j].AccountID
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Score returns the coin total for one account, zero when absent.
func (s *Scoreboard) Score(accountID int64) (int64, error) {
	raw, err := s.adapter.HGet(s.key, strconv.FormatInt(accountID, 10))
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}
