// Package api provides the web-ifc HTTP JSON API: load models, query
// indexed entities and relation maps, export IFC text, and follow load
// progress over WebSocket.
package api

import (
	"fmt"
	"net/http"

	"github.com/vegarringdal/web-ifc/internal/logging"
)

// Start runs the API server until the listener fails.
func Start(cfg Config) error {
	server, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	go server.hub.Run()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logging.ServerStartup("api", "http", cfg.Port)
	return http.ListenAndServe(addr, server.Routes())
}
