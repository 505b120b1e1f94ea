package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mythicalsystems/dash-ledger/internal/config"
	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/internal/repository"
	"github.com/mythicalsystems/dash-ledger/internal/services"
	"github.com/mythicalsystems/dash-ledger/pkg/logger"
	"github.com/mythicalsystems/dash-ledger/pkg/pg"
)

const usage = `usage: admin <command> [flags]

commands:
  create-code     --code=X --coins=N --uses=N [--disabled]
  enable-code     --code=X
  disable-code    --code=X
  delete-code     --code=X
  list-codes      [--enabled=true|false]
  create-account  --username=X [--credits=N]
  delete-account  --account=N
  credit          --account=N --amount=N [--ref=X]
  debit           --account=N --amount=N [--ref=X]
  balance         --account=N
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	db, err := pg.CreateReadWrite(writeConf, writeConf, false)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	codeRepo := repository.NewRedeemCodeRepository(db)
	ledgerService := services.NewLedgerService(accountRepo, transactionRepo, nil)

	ctx := context.Background()
	args := commandArgs(os.Args[2:])

	switch os.Args[1] {
	case "create-code":
		fs := flag.NewFlagSet("create-code", flag.ExitOnError)
		code := fs.String("code", "", "code string")
		coins := fs.Uint64("coins", 0, "coins granted per use")
		uses := fs.Uint("uses", 1, "number of uses")
		disabled := fs.Bool("disabled", false, "create disabled")
		_ = fs.Parse(args)
		if *code == "" {
			fail("--code is required")
		}
		created, err := codeRepo.Create(ctx, &model.RedeemCode{
			Code:          *code,
			Coins:         *coins,
			UsesRemaining: *uses,
			Enabled:       !*disabled,
		})
		exitOn(err)
		fmt.Printf("created code %q id=%d coins=%d uses=%d enabled=%t\n",
			created.Code, created.ID, created.Coins, created.UsesRemaining, created.Enabled)

	case "enable-code", "disable-code":
		fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
		code := fs.String("code", "", "code string")
		_ = fs.Parse(args)
		if *code == "" {
			fail("--code is required")
		}
		enabled := os.Args[1] == "enable-code"
		exitOn(codeRepo.SetEnabled(ctx, *code, enabled))
		fmt.Printf("code %q enabled=%t\n", *code, enabled)

	case "delete-code":
		fs := flag.NewFlagSet("delete-code", flag.ExitOnError)
		code := fs.String("code", "", "code string")
		_ = fs.Parse(args)
		if *code == "" {
			fail("--code is required")
		}
		exitOn(codeRepo.SoftDelete(ctx, *code))
		fmt.Printf("code %q deleted\n", *code)

	case "list-codes":
		fs := flag.NewFlagSet("list-codes", flag.ExitOnError)
		enabled := fs.String("enabled", "", "filter by enabled state")
		_ = fs.Parse(args)
		f := repository.RedeemCodeFilter{}
		if *enabled != "" {
			v := *enabled == "true"
			f.Enabled = &v
		}
		codes, total, err := codeRepo.List(ctx, f)
		exitOn(err)
		for _, c := range codes {
			fmt.Printf("%d\t%s\tcoins=%d\tuses=%d\tenabled=%t\n",
				c.ID, c.Code, c.Coins, c.UsesRemaining, c.Enabled)
		}
		fmt.Printf("total: %d\n", total)

	case "create-account":
		fs := flag.NewFlagSet("create-account", flag.ExitOnError)
		username := fs.String("username", "", "account username")
		credits := fs.Uint64("credits", 0, "starting balance")
		_ = fs.Parse(args)
		if *username == "" {
			fail("--username is required")
		}
		created, err := accountRepo.Create(ctx, &model.Account{
			Username: *username,
			Credits:  *credits,
		})
		exitOn(err)
		fmt.Printf("created account %q id=%d credits=%d\n", created.Username, created.ID, created.Credits)

	case "delete-account":
		fs := flag.NewFlagSet("delete-account", flag.ExitOnError)
		account := fs.Int64("account", 0, "account id")
		_ = fs.Parse(args)
		exitOn(accountRepo.SoftDelete(ctx, *account))
		fmt.Printf("account %d deleted\n", *account)

	case "credit":
		fs := flag.NewFlagSet("credit", flag.ExitOnError)
		account := fs.Int64("account", 0, "account id")
		amount := fs.Uint64("amount", 0, "amount")
		ref := fs.String("ref", "admin", "ledger reference")
		_ = fs.Parse(args)
		exitOn(ledgerService.Credit(ctx, *account, *amount, *ref))
		fmt.Printf("credited %d to account %d\n", *amount, *account)

	case "debit":
		fs := flag.NewFlagSet("debit", flag.ExitOnError)
		account := fs.Int64("account", 0, "account id")
		amount := fs.Uint64("amount", 0, "amount")
		ref := fs.String("ref", "admin", "ledger reference")
		_ = fs.Parse(args)
		exitOn(ledgerService.Debit(ctx, *account, *amount, *ref))
		fmt.Printf("debited %d from account %d\n", *amount, *account)

	case "balance":
		fs := flag.NewFlagSet("balance", flag.ExitOnError)
		account := fs.Int64("account", 0, "account id")
		_ = fs.Parse(args)
		balance, err := accountRepo.GetBalance(ctx, *account)
		exitOn(err)
		fmt.Printf("account %d balance: %d\n", *account, balance)

	default:
		fmt.Print(usage)
		os.Exit(2)
	}
}

// commandArgs strips the shared --env= flag so the per-command flag sets
// don't choke on it.
func commandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, v := range args {
		if strings.HasPrefix(v, "--env=") {
			continue
		}
		out = append(out, v)
	}
	return out
}

func getEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
