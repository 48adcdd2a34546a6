// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [LinkDialer]: Opens connections to panels
//   - [DeviceLink]: Writes chunks over one open connection
//   - [Scanner]: Sweeps for advertising panels
//   - [ProfileStore]: Persists the device registry
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/session, internal/app) depends only on
// these interfaces. Infrastructure adapters (internal/adapters) implement
// them with concrete implementations (BLE central, TOML files, zerolog).
//
// This separation enables:
//   - Testing session and coordinator logic with scripted fake links
//   - Swapping the radio stack without changing transfer logic
//   - Clear boundaries and dependency direction
package ports
