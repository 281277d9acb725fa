package panel

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/five82/atmbitbit/internal/lnbits"
	"github.com/five82/atmbitbit/internal/state"
)

// Mutator is the part of the extension API the form needs.
type Mutator interface {
	CreateAtmBitBit(ctx context.Context, adminKey string, input lnbits.AtmBitBitInput) (lnbits.AtmBitBit, error)
	UpdateAtmBitBit(ctx context.Context, adminKey, id string, input lnbits.AtmBitBitInput) (lnbits.AtmBitBit, error)
}

// Field names a draft field.
type Field int

const (
	FieldName Field = iota
	FieldFiatCurrency
	FieldExchangeRateProvider
	FieldFee
	FieldWallet
)

// DraftFields lists the draft fields in form order.
var DraftFields = []Field{FieldName, FieldFiatCurrency, FieldExchangeRateProvider, FieldFee, FieldWallet}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldFiatCurrency:
		return "Fiat currency"
	case FieldExchangeRateProvider:
		return "Exchange rate provider"
	case FieldFee:
		return "Fee (%)"
	case FieldWallet:
		return "Wallet"
	default:
		return "?"
	}
}

// Draft is the form's working copy. ID is set only when editing.
// WalletSelector picks the credential used to submit and is never sent.
type Draft struct {
	ID                   string
	Name                 string
	FiatCurrency         string
	ExchangeRateProvider string
	Fee                  string
	WalletSelector       string
}

// DefaultDraft seeds the create form.
var DefaultDraft = Draft{
	Name:                 "My AtmBitBit",
	FiatCurrency:         "EUR",
	ExchangeRateProvider: "coinbase",
	Fee:                  "0.00",
}

// Get returns the value bound to field.
func (d Draft) Get(field Field) string {
	switch field {
	case FieldName:
		return d.Name
	case FieldFiatCurrency:
		return d.FiatCurrency
	case FieldExchangeRateProvider:
		return d.ExchangeRateProvider
	case FieldFee:
		return d.Fee
	case FieldWallet:
		return d.WalletSelector
	default:
		return ""
	}
}

// Set binds value to field without validation.
func (d *Draft) Set(field Field, value string) {
	switch field {
	case FieldName:
		d.Name = value
	case FieldFiatCurrency:
		d.FiatCurrency = value
	case FieldExchangeRateProvider:
		d.ExchangeRateProvider = value
	case FieldFee:
		d.Fee = value
	case FieldWallet:
		d.WalletSelector = value
	}
}

func (d Draft) input() lnbits.AtmBitBitInput {
	return lnbits.AtmBitBitInput{
		Name:                 d.Name,
		FiatCurrency:         d.FiatCurrency,
		ExchangeRateProvider: d.ExchangeRateProvider,
		Fee:                  lnbits.Fee(d.Fee),
	}
}

// Form drives the create/edit dialog.
type Form struct {
	store *state.Store
	api   Mutator

	open  bool
	draft Draft
	err   error
}

// NewForm creates a closed form writing through api into store.
func NewForm(store *state.Store, api Mutator) *Form {
	return &Form{store: store, api: api, draft: DefaultDraft}
}

// OpenForCreate shows the dialog with the default draft.
func (f *Form) OpenForCreate() {
	f.draft = DefaultDraft
	f.err = nil
	f.open = true
}

// OpenForEdit shows the dialog seeded from the snapshot of record id. The
// wallet selector starts on the record's own wallet.
func (f *Form) OpenForEdit(id string) error {
	rec, ok := f.store.Get(id)
	if !ok {
		return state.NewError(state.KindNotFound, "edit", id, nil)
	}
	snap := rec.Snapshot()
	f.draft = Draft{
		ID:                   snap.ID,
		Name:                 snap.Name,
		FiatCurrency:         snap.FiatCurrency,
		ExchangeRateProvider: snap.ExchangeRateProvider,
		Fee:                  snap.Fee,
		WalletSelector:       snap.WalletID,
	}
	f.err = nil
	f.open = true
	return nil
}

// Close hides the dialog and resets the draft.
func (f *Form) Close() {
	f.open = false
	f.draft = DefaultDraft
	f.err = nil
}

// Open reports whether the dialog is shown.
func (f *Form) Open() bool { return f.open }

// Editing reports whether the draft targets an existing record.
func (f *Form) Editing() bool { return f.draft.ID != "" }

// Draft returns a copy of the working draft.
func (f *Form) Draft() Draft { return f.draft }

// Set binds a value into the draft.
func (f *Form) Set(field Field, value string) { f.draft.Set(field, value) }

// Err returns the error of the last failed submit, cleared on open and close.
func (f *Form) Err() error { return f.err }

// Submission is a prepared create or update. Run performs the network call
// and merges the answer into the store; it is safe to call off the UI loop.
type Submission struct {
	ID     string // empty for create
	Wallet lnbits.Wallet
	Input  lnbits.AtmBitBitInput

	api   Mutator
	store *state.Store
}

// Op names the operation for messages and logs.
func (s *Submission) Op() string {
	if s.ID == "" {
		return "create"
	}
	return "update"
}

// Prepare resolves the selected wallet and routes the draft to create or
// update. Nothing is sent; a missing wallet leaves the dialog open.
func (f *Form) Prepare() (*Submission, error) {
	op := "create"
	if f.Editing() {
		op = "update"
	}
	wallet, ok := f.store.Session().Wallet(strings.TrimSpace(f.draft.WalletSelector))
	if !ok {
		f.err = state.NewError(state.KindMissingWallet, op, f.draft.ID, errors.New("select a wallet"))
		return nil, f.err
	}
	return &Submission{
		ID:     f.draft.ID,
		Wallet: wallet,
		Input:  f.draft.input(),
		api:    f.api,
		store:  f.store,
	}, nil
}

// Run sends the submission and merges the server representation.
func (s *Submission) Run(ctx context.Context) (state.Fields, error) {
	var (
		item lnbits.AtmBitBit
		err  error
	)
	if s.ID == "" {
		item, err = s.api.CreateAtmBitBit(ctx, s.Wallet.AdminKey, s.Input)
	} else {
		item, err = s.api.UpdateAtmBitBit(ctx, s.Wallet.AdminKey, s.ID, s.Input)
	}
	if err != nil {
		log.Warn().Err(err).Str("op", s.Op()).Str("id", s.ID).Str("wallet", s.Wallet.ID).Msg("submit failed")
		return state.Fields{}, state.NewError(state.KindMutation, s.Op(), s.ID, err)
	}

	fields := state.FieldsFromAPI(item)
	if s.ID == "" {
		if err := s.store.ApplyCreated(fields); err != nil {
			// A refresh already merged the new record; the server copy wins.
			log.Warn().Err(err).Str("id", fields.ID).Msg("created record already present")
			if fields.ID != "" {
				s.store.ApplyUpdated(fields)
			}
		}
	} else {
		s.store.ApplyUpdated(fields)
	}
	log.Info().Str("op", s.Op()).Str("id", fields.ID).Str("wallet", s.Wallet.ID).Msg("atmbitbit saved")
	return fields, nil
}

// Finish closes the dialog after a successful Run, or keeps the draft and
// records err otherwise.
func (f *Form) Finish(err error) {
	if err != nil {
		f.err = err
		return
	}
	f.Close()
}

// Submit runs all three phases synchronously.
func (f *Form) Submit(ctx context.Context) error {
	sub, err := f.Prepare()
	if err != nil {
		return err
	}
	_, err = sub.Run(ctx)
	f.Finish(err)
	return err
}
