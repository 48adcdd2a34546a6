package ports

import (
	"context"

	"github.com/hoplab/panelhop/internal/domain"
)

// Discovery is one advertisement heard during a scan.
type Discovery struct {
	// ID is the advertising device's address.
	ID domain.DeviceID

	// LocalName is the advertised device name, if any.
	LocalName string

	// RSSI is the received signal strength in dBm. 0 when unknown.
	RSSI int16
}

// Scanner sweeps for advertising panels.
type Scanner interface {
	// Scan reports matching advertisements to found until the context
	// ends. Duplicate advertisements from the same device may be
	// reported more than once; callers de-duplicate. A context deadline
	// expiring is a normal end of sweep, not an error.
	Scan(ctx context.Context, found func(Discovery)) error
}
