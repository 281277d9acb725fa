package state

import (
	"strings"

	"github.com/five82/atmbitbit/internal/lnbits"
)

// Session holds the wallets the operator has admin credentials for. It is
// built once at startup and never changes.
type Session struct {
	wallets []lnbits.Wallet
}

// NewSession keeps the wallets that carry both an id and an admin key.
func NewSession(wallets []lnbits.Wallet) Session {
	kept := make([]lnbits.Wallet, 0, len(wallets))
	for _, w := range wallets {
		if strings.TrimSpace(w.ID) == "" || strings.TrimSpace(w.AdminKey) == "" {
			continue
		}
		kept = append(kept, w)
	}
	return Session{wallets: kept}
}

// Wallets returns a copy of the usable wallets in configuration order.
func (s Session) Wallets() []lnbits.Wallet {
	return append([]lnbits.Wallet(nil), s.wallets...)
}

// HasWallets reports whether at least one usable credential exists.
func (s Session) HasWallets() bool {
	return len(s.wallets) > 0
}

// Wallet looks up a wallet by id.
func (s Session) Wallet(id string) (lnbits.Wallet, bool) {
	if id == "" {
		return lnbits.Wallet{}, false
	}
	for _, w := range s.wallets {
		if w.ID == id {
			return w, true
		}
	}
	return lnbits.Wallet{}, false
}

// Primary returns the wallet whose key is used for listing.
func (s Session) Primary() (lnbits.Wallet, bool) {
	if len(s.wallets) == 0 {
		return lnbits.Wallet{}, false
	}
	return s.wallets[0], true
}
