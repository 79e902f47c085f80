package client

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Categories(ctx context.Context) ([]catalog.Reference, error)
	Collections(ctx context.Context) ([]catalog.Reference, error)
	CreateProduct(ctx context.Context, p catalog.Product) (string, error)
}

// Composite joins the HTTP API with the gRPC health probe.
type Composite struct {
	*HTTPClient
	health *HealthChecker
}

func NewComposite(h *HTTPClient, hc *HealthChecker) *Composite {
	return &Composite{HTTPClient: h, health: hc}
}

func (c *Composite) Ping(ctx context.Context) error {
	return c.health.Ping(ctx)
}

func (c *Composite) Close() error {
	return c.health.Close()
}

var _ Client = (*Composite)(nil)
