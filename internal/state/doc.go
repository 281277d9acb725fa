// Package state holds the local AtmBitBit collection and keeps it in step
// with the server.
//
// # Overview
//
// The Store is the single owner of the terminals shown by the panel. The
// background Poller replaces its contents on a fixed period, and the panel
// controllers merge the server's answers to create, update and delete calls
// into it. The UI only ever reads copies.
//
//	Poller goroutine:             Bubble Tea event loop:
//	┌──────────────────┐          ┌──────────────────────┐
//	│ store.Refresh()  │          │ store.SortedView()   │
//	│      ↓           │          │ store.ApplyCreated() │
//	│ wait interval    │─(mutex)─→│ store.ApplyUpdated() │
//	│      ↓           │          │ store.ApplyDeleted() │
//	│ repeat or stop   │          │                      │
//	└──────────────────┘          └──────────────────────┘
//
// # Records
//
// Every Record pairs the live Fields with a snapshot taken when the record
// entered the collection. Edit drafts are seeded from the snapshot so that
// typing into a form never touches the live values. The optional credential
// fields are pointers; Clone copies their targets so no two records share
// memory.
//
// # Refresh Semantics
//
// A successful Refresh replaces the whole collection with the server's list.
// A failed one leaves the collection alone and records the error in Status:
//
//	err := store.Refresh(ctx)
//	→ success: records = server list, Status.LastError = nil
//	→ failure: records unchanged, Status.ConsecutiveFailures++
//
// Local merges are idempotent per id: ApplyUpdated and ApplyDeleted may run in
// any order relative to other ids and leave the same membership.
//
// # Poller Lifecycle
//
//	Idle ──Start (wallets present)──→ Active ──first failure or Stop──→ Stopped
//
// The next refresh is armed only after the previous one returned, so two list
// calls are never in flight at once. A Stopped poller is never restarted; a
// manual Store.Refresh still works but does not resume scheduling.
//
// # Errors
//
// Every error returned by this package (and by the panel controllers) is an
// *Error carrying an ErrorKind. Match with errors.Is against the Err*
// sentinels or read the kind with KindOf.
package state
