// Package monitor wires the device state synchronisation subsystem together.
//
// On Start the registry and selection are seeded from the persisted cache,
// the device-updates channel is subscribed and the local selection timer
// begins. Every applied update is mirrored to the store and, when
// configured, to telemetry.
//
//	backend ──events──▶ subscription ──Update──▶ registry ──▶ store, telemetry
//	   ▲                                            ▲
//	   └──── refresh (trigger_scan) ─── Full ───────┘
//
// Errors that are not returned to a caller go to Options.OnError.
package monitor
