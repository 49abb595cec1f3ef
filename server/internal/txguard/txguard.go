// Package txguard holds the panic value shared by level transactions used
// after they finished.
package txguard

// ClosedPanicMessage is the value a level.Tx panics with when used after the
// transaction it belongs to finished.
const ClosedPanicMessage = "level.Tx: use of transaction after transaction finishes is not permitted"
