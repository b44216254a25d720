package repositories

import "context"

// StoreLifecycle is implemented by stores that hold external resources. The hosting
// service pings on startup and closes on shutdown.
type StoreLifecycle interface {
	Ping(ctx context.Context) error
	Close() error
}
