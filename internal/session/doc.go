// Package session manages the per-device connection lifecycle and drives
// chunked frame transfers.
//
// Each Session owns exactly one device and walks a fixed state machine:
//
//	Idle → Connecting → Connected → Sending → Cooldown → Idle
//
// Connecting, Connected, Sending and Cooldown may drop to Failed at any
// point; a Failed session accepts the next send and starts over from
// Connecting. Cooldown keeps the link open for a configurable idle window
// so a quick follow-up send skips the connect cycle entirely.
//
// Sends are serialized per session: Send queues behind an in-flight
// transfer, TrySend fails fast with ErrSessionBusy instead. Both connect
// attempts and individual chunk writes share one retry primitive with
// exponential backoff and jitter.
package session
