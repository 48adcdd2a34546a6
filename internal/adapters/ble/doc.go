// Package ble connects to LED panels over Bluetooth Low Energy. It
// implements ports.LinkDialer and ports.Scanner on tinygo.org/x/bluetooth,
// which talks to BlueZ on Linux and the native stacks elsewhere.
//
// Panels advertise a local name starting with "LED_BLE_" and expose a
// GATT service 0xFFF0 with a write-without-response characteristic
// 0xFFF2. The negotiated ATT MTU minus the 3-byte ATT header sets the
// chunk size for a link; stacks that cannot report the MTU fall back to
// the conservative protocol default.
package ble
