package lnbits

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Wallet is an LNbits wallet the operator holds the admin key for.
type Wallet struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	AdminKey string `toml:"admin_key"`
}

// AtmBitBit mirrors the resource payload returned by the atmbitbit extension.
type AtmBitBit struct {
	ID                   string  `json:"id"`
	Wallet               string  `json:"wallet"`
	APIKeyID             string  `json:"api_key_id"`
	APIKeySecret         *string `json:"api_key_secret"`
	APIKeyEncoding       *string `json:"api_key_encoding"`
	Name                 string  `json:"name"`
	FiatCurrency         string  `json:"fiat_currency"`
	ExchangeRateProvider string  `json:"exchange_rate_provider"`
	Fee                  Fee     `json:"fee"`
}

// AtmBitBitInput is the body accepted by the create and update endpoints.
type AtmBitBitInput struct {
	Name                 string `json:"name"`
	FiatCurrency         string `json:"fiat_currency"`
	ExchangeRateProvider string `json:"exchange_rate_provider"`
	Fee                  Fee    `json:"fee"`
}

// Fee is a percentage kept as the literal decimal text the server sent.
// The backend may serialize it as a JSON string or a JSON number.
type Fee string

// UnmarshalJSON accepts both "1.50" and 1.50.
func (f *Fee) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode fee: %w", err)
		}
		*f = Fee(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode fee: %w", err)
	}
	*f = Fee(n.String())
	return nil
}

// Decimal parses the fee for arithmetic or display.
func (f Fee) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(f)))
}

// String returns the literal fee text.
func (f Fee) String() string {
	return string(f)
}

// errorBody is the FastAPI error envelope.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}
