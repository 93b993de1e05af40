package rest

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"

	"github.com/alpacaconnect/alpaca-sdk-go/common"
)

// GetAccount returns the account associated with the client's credentials.
func (c *RESTClient) GetAccount(ctx context.Context) (common.Account, error) {
	result, err := c.do(ctx, request{
		endpoint: "v2/account",
	})
	if err != nil {
		return common.Account{}, errors.Trace(err)
	}

	account := common.Account{}
	err = json.Unmarshal(result, &account)

	return account, errors.Trace(err)
}
