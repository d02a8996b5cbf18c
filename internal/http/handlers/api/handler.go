package api

import "github.com/educycle/marketplace/internal/provider"

// Handler serves the marketplace API.
type Handler struct {
	*provider.Container
}

// New creates the API handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
