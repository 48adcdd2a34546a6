// Package domain contains the core domain entities and value objects for panelhop.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (radio links, file system, logging)
// and contains only pure data types and business rules.
//
// # Entities
//
//   - [PixelBuffer]: An immutable RGB pixel grid (one 32×32 panel or a 64×64 composite)
//   - [DeviceID]: The 6-byte link-layer address of one physical panel
//   - [DeviceProfile]: Per-device settings (timeouts, retries, chunk pacing, grid slot)
//   - [GridLayout]: The 2×2 tiling that maps grid positions to devices
//   - [CommandFrame]: One complete encoded panel command (header + payload + checksum)
//   - [Chunk]: A link-sized slice of a frame, the unit actually written to a device
//   - [SendResult]: The per-device outcome of one send operation
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
