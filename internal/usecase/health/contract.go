package health

import "context"

// StorePinger probes the report store. Satisfied by db.Store.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EncoderChecker probes the narrative encoder. Satisfied by the openai
// transport; left nil when the service runs without an encoder.
type EncoderChecker interface {
	HealthCheck(ctx context.Context) error
}
