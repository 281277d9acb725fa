package state

import (
	"github.com/five82/atmbitbit/internal/lnbits"
)

// Fields are the attributes of one AtmBitBit terminal.
type Fields struct {
	ID                   string
	WalletID             string
	APIKeyID             string
	Name                 string
	FiatCurrency         string
	ExchangeRateProvider string
	Fee                  string
	APIKeySecret         *string
	APIKeyEncoding       *string
}

// Clone returns a copy that shares no memory with f.
func (f Fields) Clone() Fields {
	dup := f
	dup.APIKeySecret = cloneString(f.APIKeySecret)
	dup.APIKeyEncoding = cloneString(f.APIKeyEncoding)
	return dup
}

// Equal compares by value, including the optional credential fields.
func (f Fields) Equal(other Fields) bool {
	a, b := f, other
	a.APIKeySecret, a.APIKeyEncoding = nil, nil
	b.APIKeySecret, b.APIKeyEncoding = nil, nil
	return a == b &&
		equalString(f.APIKeySecret, other.APIKeySecret) &&
		equalString(f.APIKeyEncoding, other.APIKeyEncoding)
}

// FieldsFromAPI normalizes a server payload.
func FieldsFromAPI(item lnbits.AtmBitBit) Fields {
	return Fields{
		ID:                   item.ID,
		WalletID:             item.Wallet,
		APIKeyID:             item.APIKeyID,
		Name:                 item.Name,
		FiatCurrency:         item.FiatCurrency,
		ExchangeRateProvider: item.ExchangeRateProvider,
		Fee:                  item.Fee.String(),
		APIKeySecret:         cloneString(item.APIKeySecret),
		APIKeyEncoding:       cloneString(item.APIKeyEncoding),
	}
}

// Record pairs the live fields of a terminal with the snapshot taken when it
// entered the collection. Edit drafts are seeded from the snapshot.
type Record struct {
	live     Fields
	snapshot Fields
}

// NewRecord wraps f with a fresh snapshot.
func NewRecord(f Fields) Record {
	return Record{live: f.Clone(), snapshot: f.Clone()}
}

// ID returns the server-assigned identifier.
func (r Record) ID() string { return r.live.ID }

// Fields returns a copy of the live fields.
func (r Record) Fields() Fields { return r.live.Clone() }

// Snapshot returns a copy of the snapshot fields.
func (r Record) Snapshot() Fields { return r.snapshot.Clone() }

func (r Record) clone() Record {
	return Record{live: r.live.Clone(), snapshot: r.snapshot.Clone()}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
