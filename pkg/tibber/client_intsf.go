package tibber

import "context"

// Client talks to the Tibber GraphQL API.
type Client interface {
	// GetHomes returns every home of the account, including inactive ones.
	GetHomes(ctx context.Context) ([]Home, error)
	// GetPriceInfo returns the home with refreshed metering point data plus
	// hourly price info for today and, when published, tomorrow.
	GetPriceInfo(ctx context.Context, homeID string) (*Home, *PriceInfo, error)
	// OpenLiveStream starts a live measurement subscription for a home. The
	// handler is called from the stream goroutine for every message until the
	// stream is closed.
	OpenLiveStream(homeID string, handler StreamHandler) (LiveStream, error)
}

type StreamHandler func(msg StreamMessage)

type StreamMessage struct {
	HomeID      string
	Measurement *LiveMeasurement
	Running     bool
	Err         error
}

type LiveStream interface {
	// Running reports whether the subscription is currently established.
	Running() bool
	Close()
}
