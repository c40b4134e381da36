package rpc

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/constants"
)

// GetSignaturesForAddress fetches the most recent transaction signatures
// for an account, newest first per upstream ordering.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	params := []interface{}{
		address,
		map[string]interface{}{"limit": limit},
	}

	var result SignaturesResponse
	if err := c.Call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return result.Result, nil
}

// GetTransactionDetail fetches full parsed transaction details,
// requesting the highest supported transaction version.
func (c *Client) GetTransactionDetail(ctx context.Context, signature string) (*TransactionResult, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result TransactionResponse
	if err := c.Call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return result.Result, nil
}

// GetBalance returns the native balance of a wallet in SOL.
func (c *Client) GetBalance(ctx context.Context, wallet string) (float64, error) {
	params := []interface{}{wallet}

	var result balanceResponse
	if err := c.Call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	if result.Error != nil {
		return 0, result.Error
	}

	return float64(result.Result.Value) / constants.LamportsPerSOL, nil
}

// GetTokenSupply returns the total supply of a mint as a UI amount.
func (c *Client) GetTokenSupply(ctx context.Context, mint string) (float64, error) {
	params := []interface{}{
		mint,
		map[string]interface{}{"commitment": "finalized"},
	}

	var result tokenSupplyResponse
	if err := c.Call(ctx, "getTokenSupply", params, &result); err != nil {
		return 0, err
	}
	if result.Error != nil {
		return 0, result.Error
	}

	return result.Result.Value.UIAmount, nil
}

// GetTokenBalance returns the owner's balance of a mint as a UI amount.
// An owner without a token account for the mint holds zero.
func (c *Client) GetTokenBalance(ctx context.Context, owner, mint string) (float64, error) {
	params := []interface{}{
		owner,
		map[string]interface{}{"mint": mint},
		map[string]interface{}{"encoding": "jsonParsed"},
	}

	var result tokenAccountsResponse
	if err := c.Call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return 0, err
	}
	if result.Error != nil {
		return 0, result.Error
	}

	accounts := result.Result.Value
	if len(accounts) == 0 {
		return 0, nil
	}
	return accounts[0].Account.Data.Parsed.Info.TokenAmount.UIAmount, nil
}

// GetTokenLargestAccounts returns the upstream-ranked list of top
// balance holders for a mint.
func (c *Client) GetTokenLargestAccounts(ctx context.Context, mint string) ([]LargestAccount, error) {
	params := []interface{}{
		mint,
		map[string]interface{}{"commitment": "finalized"},
	}

	var result largestAccountsResponse
	if err := c.Call(ctx, "getTokenLargestAccounts", params, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return result.Result.Value, nil
}

// GetAccountOwner resolves the owner wallet of a token account via a
// parsed account-info lookup.
func (c *Client) GetAccountOwner(ctx context.Context, tokenAccount string) (string, error) {
	params := []interface{}{
		tokenAccount,
		map[string]interface{}{"encoding": "jsonParsed"},
	}

	var result accountInfoResponse
	if err := c.Call(ctx, "getAccountInfo", params, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", result.Error
	}

	v := result.Result.Value
	if v == nil || v.Data.Parsed.Info.Owner == "" {
		return "", fmt.Errorf("no owner for account %s", tokenAccount)
	}
	return v.Data.Parsed.Info.Owner, nil
}
