package worker

import (
	"context"
	"net/http"

	"hallyu-journalist/internal/api"
)

// APIServer serves the read API as a worker.
type APIServer struct {
	Addr    string
	Handler http.Handler
}

func (w *APIServer) Start(ctx context.Context) error {
	return api.Serve(ctx, w.Addr, w.Handler)
}
