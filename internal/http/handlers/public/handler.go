package public

import "github.com/sofahub/sofahub-api/internal/provider"

// Handler serves the storefront API. Every endpoint here is reachable
// without staff credentials.
type Handler struct {
	*provider.Container
}

// New creates the storefront handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
