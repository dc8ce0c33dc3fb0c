package health

import "context"

// BackendChecker checks SwapCycle backend availability.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorePinger checks session store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}
