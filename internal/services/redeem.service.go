package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mythicalsystems/dash-ledger/internal/events"
	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/internal/repository"
	"github.com/mythicalsystems/dash-ledger/pkg/logger"
	"github.com/mythicalsystems/dash-ledger/pkg/prom"
)

var (
	ErrCodeNotFound    = errors.New("redeem code not found")
	ErrCodeExhausted   = errors.New("redeem code has no uses left")
	ErrAlreadyRedeemed = errors.New("code already redeemed by this account")
)

type RedeemCodeRepository interface {
	GetByCodeForUpdate(ctx context.Context, code string) (*model.RedeemCode, error)
	ConsumeUse(ctx context.Context, codeID int64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RedemptionRepository interface {
	Exists(ctx context.Context, codeID, accountID int64) (bool, error)
	Create(ctx context.Context, redemption *model.Redemption) (*model.Redemption, error)
}

// CoinCrediter is the slice of the ledger a redemption needs once the code
// has been consumed.
type CoinCrediter interface {
	Credit(ctx context.Context, accountID int64, amount uint64, reference string) error
}

type RedeemService struct {
	codeRepo       RedeemCodeRepository
	redemptionRepo RedemptionRepository
	ledger         CoinCrediter
	publisher      EventPublisher
}

func NewRedeemService(codeRepo RedeemCodeRepository, redemptionRepo RedemptionRepository, ledger CoinCrediter, publisher EventPublisher) *RedeemService {
	return &RedeemService{
		codeRepo:       codeRepo,
		redemptionRepo: redemptionRepo,
		ledger:         ledger,
		publisher:      publisher,
	}
}

// Redeem validates and consumes one use of the code for the account, all
// inside a single transaction with the code row locked. The checks run in a
// fixed order so the caller sees the most specific rejection: a repeat
// redeemer of an exhausted code is told "already redeemed", not "no uses
// left". Any rejection rolls the whole transaction back.
func (s *RedeemService) Redeem(ctx context.Context, code string, accountID int64) (*model.RedemptionResult, error) {
	start := time.Now()

	var result *model.RedemptionResult
	err := s.codeRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		row, err := s.codeRepo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrCodeNotFound) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("lock code row: %w", err)
		}

		redeemed, err := s.redemptionRepo.Exists(ctx, row.ID, accountID)
		if err != nil {
			return fmt.Errorf("check prior redemption: %w", err)
		}
		if redeemed {
			return ErrAlreadyRedeemed
		}

		if row.UsesRemaining == 0 {
			return ErrCodeExhausted
		}

		if err := s.codeRepo.ConsumeUse(ctx, row.ID); err != nil {
			if errors.Is(err, repository.ErrCodeExhausted) {
				return ErrCodeExhausted
			}
			return fmt.Errorf("consume use: %w", err)
		}

		if _, err := s.redemptionRepo.Create(ctx, &model.Redemption{
			CodeID:    row.ID,
			AccountID: accountID,
		}); err != nil {
			if errors.Is(err, repository.ErrAlreadyRedeemed) {
				return ErrAlreadyRedeemed
			}
			return fmt.Errorf("record redemption: %w", err)
		}

		result = &model.RedemptionResult{
			CodeID:   row.ID,
			Coins:    row.Coins,
			UsesLeft: row.UsesRemaining - 1,
		}
		return nil
	})

	outcome := "redeemed"
	if err != nil {
		outcome = rejectionOutcome(err)
	}
	prom.IncrementCounterVec(prom.SystemRedeem, prom.MetricRedeemAttempts, outcome)
	prom.ObserveHistogramVec(prom.SystemRedeem, prom.MetricRedeemDuration, time.Since(start).Seconds(), outcome)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// RedeemAndCredit consumes the code and then credits its coins to the
// account. The credit runs after the consuming transaction commits, so a
// crash between the two can lose a credit but never hand out a use twice;
// the redemption row makes the loss auditable.
func (s *RedeemService) RedeemAndCredit(ctx context.Context, code string, accountID int64) (*model.RedemptionResult, error) {
	result, err := s.Redeem(ctx, code, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Credit(ctx, accountID, result.Coins, "redeem:"+code); err != nil {
		logger.Error("credit failed after consumed redemption", "code_id", result.CodeID, "account_id", accountID, "coins", result.Coins, "error", err)
		return result, fmt.Errorf("credit redeemed coins: %w", err)
	}

	if s.publisher != nil {
		ev := events.New(events.KindCodeRedeemed, accountID)
		ev.CodeID = result.CodeID
		ev.Amount = result.Coins
		ev.Reference = "redeem:" + code
		if _, err := s.publisher.Publish(ctx, ev); err != nil {
			logger.Error("failed to publish redemption event", "code_id", result.CodeID, "account_id", accountID, "error", err)
		}
	}

	return result, nil
}

// Validate reports whether the account could redeem the code right now. It
// mutates nothing; the answer is advisory and can be stale by the time the
// caller acts on it.
func (s *RedeemService) Validate(ctx context.Context, code string, accountID int64) (*model.ValidationResult, error) {
	var result *model.ValidationResult
	err := s.codeRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		row, err := s.codeRepo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrCodeNotFound) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("lock code row: %w", err)
		}

		redeemed, err := s.redemptionRepo.Exists(ctx, row.ID, accountID)
		if err != nil {
			return fmt.Errorf("check prior redemption: %w", err)
		}

		result = &model.ValidationResult{
			CodeID:          row.ID,
			Coins:           row.Coins,
			UsesLeft:        row.UsesRemaining,
			AlreadyRedeemed: redeemed,
			CanRedeem:       !redeemed && row.UsesRemaining > 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func rejectionOutcome(err error) string {
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, ErrCodeExhausted):
		return "exhausted"
	default:
		return "error"
	}
}
