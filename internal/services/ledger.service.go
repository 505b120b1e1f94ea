package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mythicalsystems/dash-ledger/internal/events"
	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/internal/repository"
	"github.com/mythicalsystems/dash-ledger/pkg/logger"
	"github.com/mythicalsystems/dash-ledger/pkg/prom"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
	ErrEffectFailed      = errors.New("purchase effect failed after debit")
)

type AccountRepository interface {
	Get(ctx context.Context, id int64) (*model.Account, error)
	GetBalance(ctx context.Context, id int64) (uint64, error)
	Debit(ctx context.Context, id int64, amount uint64) error
	Credit(ctx context.Context, id int64, amount uint64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event) (string, error)
}

// Effect is the side effect a purchase grants. It runs only after the debit
// has committed.
type Effect func(ctx context.Context) error

type LedgerService struct {
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	publisher       EventPublisher
}

func NewLedgerService(accountRepo AccountRepository, transactionRepo TransactionRepository, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		publisher:       publisher,
	}
}

// Debit removes amount from the account balance. The decrement is a single
// conditional statement, so a decline never mutates state; the ledger entry
// rides in the same transaction and rolls back with it.
func (s *LedgerService) Debit(ctx context.Context, accountID int64, amount uint64, reference string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	err := s.accountRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.accountRepo.Debit(ctx, accountID, amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return ErrInsufficientFunds
			}
			return fmt.Errorf("debit account: %w", err)
		}

		_, err := s.transactionRepo.Create(ctx, &model.Transaction{
			AccountID: accountID,
			Amount:    amount,
			Type:      "debit",
			Reference: reference,
		})
		return err
	})
	if err != nil {
		prom.IncrementCounterVec(prom.SystemLedger, prom.MetricLedgerOperations, "debit", "declined")
		return err
	}

	prom.IncrementCounterVec(prom.SystemLedger, prom.MetricLedgerOperations, "debit", "applied")
	s.publish(ctx, events.KindDebit, accountID, amount, reference)
	return nil
}

// Credit adds amount to the account balance. It fails only when the account
// does not exist.
func (s *LedgerService) Credit(ctx context.Context, accountID int64, amount uint64, reference string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	err := s.accountRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.accountRepo.Credit(ctx, accountID, amount); err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("credit account: %w", err)
		}

		_, err := s.transactionRepo.Create(ctx, &model.Transaction{
			AccountID: accountID,
			Amount:    amount,
			Type:      "credit",
			Reference: reference,
		})
		return err
	})
	if err != nil {
		prom.IncrementCounterVec(prom.SystemLedger, prom.MetricLedgerOperations, "credit", "declined")
		return err
	}

	prom.IncrementCounterVec(prom.SystemLedger, prom.MetricLedgerOperations, "credit", "applied")
	s.publish(ctx, events.KindCredit, accountID, amount, reference)
	return nil
}

// CheckSufficient is a plain read. A concurrent debit may invalidate the
// answer immediately; only the conditional debit itself is authoritative.
func (s *LedgerService) CheckSufficient(ctx context.Context, accountID int64, required uint64) (bool, uint64, error) {
	balance, err := s.accountRepo.GetBalance(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return false, 0, ErrAccountNotFound
		}
		return false, 0, err
	}

	return balance >= required, balance, nil
}

// Purchase debits price and then invokes effect. The effect runs if and only
// if the debit committed: a fail-fast read declines early with a quote, and
// the conditional debit declines again if a concurrent debit won the race.
// An effect error after the committed debit is reported as ErrEffectFailed;
// the debit stands, since the effect may have partially applied and a blind
// refund would mint credits.
func (s *LedgerService) Purchase(ctx context.Context, accountID int64, price uint64, reference string, effect Effect) (*model.PurchaseResult, error) {
	if price == 0 {
		return nil, ErrInvalidAmount
	}

	balance, err := s.accountRepo.GetBalance(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("read balance: %w", err)
	}

	if balance < price {
		prom.IncrementCounterVec(prom.SystemLedger, prom.MetricLedgerOperations, "purchase", "declined")
		return &model.PurchaseResult{Required: price, Available: balance}, ErrInsufficientFunds
	}

	var remaining uint64
	err = s.accountRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.accountRepo.Debit(ctx, accountID, price); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return ErrInsufficientFunds
			}
			return fmt.Errorf("debit account: %w", err)
		}

		if _, err := s.transactionRepo.Create(ctx, &model.Transaction{
			AccountID: accountID,
			Amount:    price,
			Type:      "debit",
			Reference: reference,
		}); err != nil {
			return fmt.Errorf("record purchase: %w", err)
		}

		after, err := s.accountRepo.GetBalance(ctx, accountID)
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}
		remaining = after
		return nil
	})
	if err != nil {
		prom.IncrementCounterVec(prom.SystemLedger, prom.MetricLedgerOperations, "purchase", "declined")
		if errors.Is(err, ErrInsufficientFunds) {
			// a concurrent debit beat us between the read and the write
			available, readErr := s.accountRepo.GetBalance(ctx, accountID)
			if readErr != nil {
				available = 0
			}
			return &model.PurchaseResult{Required: price, Available: available}, ErrInsufficientFunds
		}
		return nil, err
	}

	prom.IncrementCounterVec(prom.SystemLedger, prom.MetricLedgerOperations, "purchase", "applied")
	s.publish(ctx, events.KindDebit, accountID, price, reference)

	if effect != nil {
		if err := effect(ctx); err != nil {
			logger.Error("purchase effect failed after committed debit", "account_id", accountID, "reference", reference, "error", err)
			return &model.PurchaseResult{Remaining: remaining}, fmt.Errorf("%w: %v", ErrEffectFailed, err)
		}
	}

	return &model.PurchaseResult{Remaining: remaining}, nil
}

func (s *LedgerService) publish(ctx context.Context, kind string, accountID int64, amount uint64, reference string) {
	if s.publisher == nil {
		return
	}
	ev := events.New(kind, accountID)
	ev.Amount = amount
	ev.Reference = reference
	if _, err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Error("failed to publish ledger event", "kind", kind, "account_id", accountID, "error", err)
	}
}
