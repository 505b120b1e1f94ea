package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/internal/repository"
	"github.com/mythicalsystems/dash-ledger/pkg/pg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// services wired over real repositories on an in-memory database, so the
// whole redeem-then-credit and purchase flow runs against actual SQL.
func setupScenario(t *testing.T) (*LedgerService, *RedeemService, *repository.AccountRepository, *repository.RedeemCodeRepository, *repository.RedemptionRepository) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.AccountEntity{},
		&repository.RedeemCodeEntity{},
		&repository.RedemptionEntity{},
		&repository.TransactionEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	v := reflect.ValueOf(pgDB).Elem()
	for _, name := range []string{"read", "write"} {
		f := v.FieldByName(name)
		f = reflect.NewAt(f.Type(), f.Addr().UnsafePointer()).Elem()
		f.Set(reflect.ValueOf(db))
	}

	accountRepo := repository.NewAccountRepository(pgDB)
	transactionRepo := repository.NewTransactionRepository(pgDB)
	codeRepo := repository.NewRedeemCodeRepository(pgDB)
	redemptionRepo := repository.NewRedemptionRepository(pgDB)

	ledger := NewLedgerService(accountRepo, transactionRepo, nil)
	redeem := NewRedeemService(codeRepo, redemptionRepo, ledger, nil)

	return ledger, redeem, accountRepo, codeRepo, redemptionRepo
}

func TestScenario_SingleUseCodeLifecycle(t *testing.T) {
	ledger, redeem, accountRepo, codeRepo, redemptionRepo := setupScenario(t)
	ctx := context.Background()

	alice, err := accountRepo.Create(ctx, &model.Account{Username: "alice"})
	require.NoError(t, err)
	bob, err := accountRepo.Create(ctx, &model.Account{Username: "bob"})
	require.NoError(t, err)

	_, err = codeRepo.Create(ctx, &model.RedeemCode{
		Code:          "WELCOME10",
		Coins:         100,
		UsesRemaining: 1,
		Enabled:       true,
	})
	require.NoError(t, err)

	// alice takes the only use and gets the coins
	result, err := redeem.RedeemAndCredit(ctx, "WELCOME10", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), result.Coins)
	assert.Equal(t, uint(0), result.UsesLeft)

	balance, err := accountRepo.GetBalance(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	// bob is too late
	_, err = redeem.RedeemAndCredit(ctx, "WELCOME10", bob.ID)
	assert.ErrorIs(t, err, ErrCodeExhausted)

	balance, err = accountRepo.GetBalance(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	// alice retrying hears about her own redemption, not the exhaustion
	_, err = redeem.RedeemAndCredit(ctx, "WELCOME10", alice.ID)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)

	// and her balance did not move again
	balance, err = accountRepo.GetBalance(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	redemptions, err := redemptionRepo.ListByAccount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, redemptions, 1)

	// alice spends her coins
	effectRuns := 0
	purchase, err := ledger.Purchase(ctx, alice.ID, 60, "purchase:vip", func(ctx context.Context) error {
		effectRuns++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, effectRuns)
	assert.Equal(t, uint64(40), purchase.Remaining)

	// a second identical purchase no longer fits; the effect must not run
	purchase, err = ledger.Purchase(ctx, alice.ID, 60, "purchase:vip", func(ctx context.Context) error {
		effectRuns++
		return nil
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 1, effectRuns)
	require.NotNil(t, purchase)
	assert.Equal(t, uint64(60), purchase.Required)
	assert.Equal(t, uint64(40), purchase.Available)
}

func TestScenario_MultiUseCodeExhaustsExactly(t *testing.T) {
	_, redeem, accountRepo, codeRepo, _ := setupScenario(t)
	ctx := context.Background()

	_, err := codeRepo.Create(ctx, &model.RedeemCode{
		Code:          "PARTY",
		Coins:         10,
		UsesRemaining: 3,
		Enabled:       true,
	})
	require.NoError(t, err)

	var accounts []*model.Account
	for _, name := range []string{"u1", "u2", "u3", "u4"} {
		a, err := accountRepo.Create(ctx, &model.Account{Username: name})
		require.NoError(t, err)
		accounts = append(accounts, a)
	}

	// exactly three redemptions succeed
	for i := 0; i < 3; i++ {
		result, err := redeem.RedeemAndCredit(ctx, "PARTY", accounts[i].ID)
		require.NoError(t, err)
		assert.Equal(t, uint(2-i), result.UsesLeft)
	}

	_, err = redeem.RedeemAndCredit(ctx, "PARTY", accounts[3].ID)
	assert.ErrorIs(t, err, ErrCodeExhausted)

	code, err := codeRepo.GetByCode(ctx, "PARTY")
	require.NoError(t, err)
	assert.Equal(t, uint(0), code.UsesRemaining)
}

// failingRedemptionRepo delegates the duplicate check to the real repository
// but rejects every insert, forcing a failure after the uses-decrement.
type failingRedemptionRepo struct {
	real *repository.RedemptionRepository
	err  error
}

func (r *failingRedemptionRepo) Exists(ctx context.Context, codeID, accountID int64) (bool, error) {
	return r.real.Exists(ctx, codeID, accountID)
}

func (r *failingRedemptionRepo) Create(ctx context.Context, redemption *model.Redemption) (*model.Redemption, error) {
	return nil, r.err
}

func TestScenario_FailedRedemptionInsertRollsBackDecrement(t *testing.T) {
	ledger, _, accountRepo, codeRepo, redemptionRepo := setupScenario(t)
	ctx := context.Background()

	account, err := accountRepo.Create(ctx, &model.Account{Username: "alice"})
	require.NoError(t, err)

	_, err = codeRepo.Create(ctx, &model.RedeemCode{
		Code:          "ROLLBACK",
		Coins:         25,
		UsesRemaining: 5,
		Enabled:       true,
	})
	require.NoError(t, err)

	injected := errors.New("redemption insert rejected")
	redeem := NewRedeemService(codeRepo, &failingRedemptionRepo{real: redemptionRepo, err: injected}, ledger, nil)

	_, err = redeem.Redeem(ctx, "ROLLBACK", account.ID)
	require.ErrorIs(t, err, injected)

	// the decrement ran inside the transaction, so it must be undone
	code, err := codeRepo.GetByCode(ctx, "ROLLBACK")
	require.NoError(t, err)
	assert.Equal(t, uint(5), code.UsesRemaining)

	redemptions, err := redemptionRepo.ListByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, redemptions)

	// the code stays fully redeemable once inserts work again
	healthy := NewRedeemService(codeRepo, redemptionRepo, ledger, nil)
	result, err := healthy.RedeemAndCredit(ctx, "ROLLBACK", account.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(4), result.UsesLeft)

	balance, err := accountRepo.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), balance)
}

func TestScenario_DisabledAndDeletedCodesAreInvisible(t *testing.T) {
	_, redeem, accountRepo, codeRepo, _ := setupScenario(t)
	ctx := context.Background()

	account, err := accountRepo.Create(ctx, &model.Account{Username: "alice"})
	require.NoError(t, err)

	_, err = codeRepo.Create(ctx, &model.RedeemCode{
		Code: "PAUSED", Coins: 10, UsesRemaining: 5, Enabled: true,
	})
	require.NoError(t, err)
	require.NoError(t, codeRepo.SetEnabled(ctx, "PAUSED", false))

	_, err = redeem.RedeemAndCredit(ctx, "PAUSED", account.ID)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	// re-enabling brings it back
	require.NoError(t, codeRepo.SetEnabled(ctx, "PAUSED", true))
	_, err = redeem.RedeemAndCredit(ctx, "PAUSED", account.ID)
	require.NoError(t, err)

	// soft delete hides it for everyone, even prior redeemers
	require.NoError(t, codeRepo.SoftDelete(ctx, "PAUSED"))
	_, err = redeem.Validate(ctx, "PAUSED", account.ID)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}
