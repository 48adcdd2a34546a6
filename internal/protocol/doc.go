// Package protocol implements the panel wire format: building command
// frames from pixel data and slicing frames into link-sized chunks.
//
// All multi-byte fields are little-endian. The frame layout is fixed by the
// panel firmware and must not change:
//
//	[0]    command kind
//	[1:3]  payload length (uint16 LE)
//	[3]    width in pixels
//	[4]    height in pixels
//	[5:]   payload
//	[n-2:] additive checksum over all preceding bytes (uint16 LE)
//
// Payloads by kind:
//
//   - image: row-major RGB, 3 bytes per pixel
//   - text:  3 bytes foreground RGB, then run-length packed rows where each
//     run byte holds the pixel state in bit 7 and a length of 1..127 in
//     bits 0..6
//   - clear, ping: empty
//
// A frame never crosses the link whole. The chunker prefixes every slice
// with a control byte (final flag in bit 7, sequence counter mod 128 in
// bits 0..6) so the firmware can detect loss and find the frame boundary.
//
// This package is transport-agnostic: it knows nothing about radios, GATT
// characteristics or pacing. Those live in the session and link layers.
package protocol
