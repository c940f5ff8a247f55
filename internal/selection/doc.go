// Package selection tracks which device the user has made active.
//
// The selection is a Bluetooth address, persisted independently of the
// device registry. It can outlive the device it names.
package selection
