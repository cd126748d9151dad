package wallet

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"ai-trading-bot/internal/auth"
	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/types"
)

const (
	usdWalletName  = "Cash (USD)"
	accountsMethod = "GET"
	accountsPath   = "/api/v3/brokerage/accounts"
)

// ErrAccountNotFound means no exchange account matched the requested currency
// or wallet name.
var ErrAccountNotFound = errors.New("wallet: account not found")

// TokenSource supplies bearer tokens scoped to an HTTP method and path.
type TokenSource interface {
	Token(method, path string) (auth.Token, error)
}

// Wallet looks up account balances, minting or reusing auth tokens as needed.
type Wallet struct {
	tokens TokenSource
	ex     interfaces.Exchange
}

func New(tokens TokenSource, ex interfaces.Exchange) *Wallet {
	return &Wallet{tokens: tokens, ex: ex}
}

// USDAccount returns the authoritative cash account, matched by its display
// name, case-insensitively.
func (w *Wallet) USDAccount(ctx context.Context) (types.Account, error) {
	accounts, err := w.accounts(ctx)
	if err != nil {
		return types.Account{}, err
	}
	for _, a := range accounts {
		if strings.EqualFold(a.Name, usdWalletName) {
			return a, nil
		}
	}
	return types.Account{}, errors.Wrapf(ErrAccountNotFound, "name %q", usdWalletName)
}

// AssetAccount returns the account holding the given currency code.
func (w *Wallet) AssetAccount(ctx context.Context, symbol string) (types.Account, error) {
	accounts, err := w.accounts(ctx)
	if err != nil {
		return types.Account{}, err
	}
	for _, a := range accounts {
		if a.Currency == symbol {
			return a, nil
		}
	}
	return types.Account{}, errors.Wrapf(ErrAccountNotFound, "currency %q", symbol)
}

// AssetBalance returns the available amount of the given currency.
func (w *Wallet) AssetBalance(ctx context.Context, symbol string) (decimal.Decimal, error) {
	account, err := w.AssetAccount(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Available.Amount, nil
}

func (w *Wallet) accounts(ctx context.Context) ([]types.Account, error) {
	tok, err := w.tokens.Token(accountsMethod, accountsPath)
	if err != nil {
		return nil, err
	}
	return w.ex.GetAccounts(ctx, tok.Raw)
}
