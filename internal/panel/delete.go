package panel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/five82/atmbitbit/internal/state"
)

// Remover is the part of the extension API the deletion flow needs.
type Remover interface {
	DeleteAtmBitBit(ctx context.Context, adminKey, id string) error
}

// Deleter removes records after the operator confirmed.
type Deleter struct {
	store *state.Store
	api   Remover
}

// NewDeleter creates a Deleter.
func NewDeleter(store *state.Store, api Remover) *Deleter {
	return &Deleter{store: store, api: api}
}

// Prompt returns the confirmation question for record id.
func (d *Deleter) Prompt(id string) (string, error) {
	rec, ok := d.store.Get(id)
	if !ok {
		return "", state.NewError(state.KindNotFound, "delete", id, nil)
	}
	return fmt.Sprintf("Are you sure you want to delete \"%s\"?", rec.Fields().Name), nil
}

// Delete calls the server with the admin key of the record's own wallet and
// drops the record locally once the server agreed. On failure the record
// stays.
func (d *Deleter) Delete(ctx context.Context, id string) error {
	rec, ok := d.store.Get(id)
	if !ok {
		return state.NewError(state.KindNotFound, "delete", id, nil)
	}
	walletID := rec.Fields().WalletID
	wallet, ok := d.store.Session().Wallet(walletID)
	if !ok {
		return state.NewError(state.KindMissingWallet, "delete", id, fmt.Errorf("no admin key for wallet %q", walletID))
	}

	if err := d.api.DeleteAtmBitBit(ctx, wallet.AdminKey, id); err != nil {
		log.Warn().Err(err).Str("id", id).Str("wallet", wallet.ID).Msg("delete failed")
		return state.NewError(state.KindMutation, "delete", id, err)
	}
	d.store.ApplyDeleted(id)
	log.Info().Str("id", id).Str("wallet", wallet.ID).Msg("atmbitbit deleted")
	return nil
}

// RequestDelete asks confirm with the prompt and deletes on acceptance.
// Declining returns nil and changes nothing.
func (d *Deleter) RequestDelete(ctx context.Context, id string, confirm func(prompt string) bool) error {
	prompt, err := d.Prompt(id)
	if err != nil {
		return err
	}
	if confirm == nil || !confirm(prompt) {
		log.Debug().Str("id", id).Msg("delete not confirmed")
		return nil
	}
	return d.Delete(ctx, id)
}
