// Package panelhop drives Bluetooth LED matrix panels.
//
// A Controller reads the panel registry, connects to panels over BLE
// on demand, and delivers images, text, clear and ping commands. It
// can be used through the panelhop CLI or embedded as a library in
// other Go programs.
//
// # Basic Usage
//
// To embed panelhop in your application:
//
//	ctrl, err := panelhop.New(panelhop.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close()
//
//	ctx := context.Background()
//	report, err := ctrl.SendText(ctx, panelhop.All(), "OPEN", "amber")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !report.OK() {
//	    for _, r := range report.Failed() {
//	        log.Printf("%s: %v", r.MAC, r.Err)
//	    }
//	}
//
// # Targets
//
// Every operation takes a [Target]: [All] for every enabled panel,
// [Device] for one panel by name or address, or [Grid] for the panels
// assigned to grid slots. Grid image and text sends render one large
// picture and give each panel its quadrant.
//
// # Configuration
//
// Panels live in a TOML registry file (~/.panelhop/panels.toml by
// default); point [Config.RegistryPath] elsewhere to override. Use
// [Controller.Scan] and [Controller.SaveDiscovered] to find and
// register panels.
//
// # Event Handling
//
// To observe panel connections, implement [EventHandler] and pass it
// via [WithEventHandler]. Events fire synchronously from send
// goroutines; implementations should return quickly.
//
// # Dependency Injection
//
// For testing, inject custom transports:
//
//	ctrl, err := panelhop.New(cfg,
//	    panelhop.WithDialer(fakeDialer),
//	    panelhop.WithScanner(fakeScanner),
//	    panelhop.WithLogger(logger),
//	)
package panelhop
