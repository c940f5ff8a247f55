// Package subscription manages the lifecycle of one backend push-event
// listener.
//
// A Subscription moves through
//
//	unsubscribed ─▶ subscribing ─▶ subscribed ─▶ unsubscribed
//	                     │
//	                     └─▶ failed
//
// Payloads are normalised into device.Update values before they reach the
// snapshot callback. Malformed payloads go to the error callback and the
// subscription keeps running.
package subscription
