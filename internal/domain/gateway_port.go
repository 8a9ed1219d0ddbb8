package domain

import "context"

// GatewayClient is the slice of the payment gateway API the engine needs. Objects come
// back as metadata sources since metadata is all the engine reads from them.
type GatewayClient interface {
	GetPaymentIntent(ctx context.Context, id string) (*MetadataSource, error)
	GetCustomer(ctx context.Context, id string) (*MetadataSource, error)
	GetCharge(ctx context.Context, id string) (*MetadataSource, error)
}
