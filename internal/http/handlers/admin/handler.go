package admin

import "github.com/sofahub/sofahub-api/internal/provider"

// Handler serves the back-office API. Every route is behind staff auth.
type Handler struct {
	*provider.Container
}

// New creates the back-office handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
