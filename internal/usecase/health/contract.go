package health

import "context"

// Pinger checks store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks a remote model provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
