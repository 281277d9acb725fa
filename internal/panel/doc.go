// Package panel implements the operator actions on AtmBitBit terminals: the
// create/edit form, the confirmed delete and the config file export. Each
// controller reads from and merges into a state.Store.
package panel
