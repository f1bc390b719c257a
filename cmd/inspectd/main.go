// Command inspectd wires a small user service graph into the default guise
// registry and serves it next to the registry's introspection routes:
//
//	GET /users/{id}?format=json|csv    resolved through the registry
//	GET /debug/guise/...               see package inspect
//
// Configuration is read from the environment, after loading .env when
// present:
//
//	GUISE_INSPECT_ADDR   listen address (default :8089)
//	GUISE_LOG_LEVEL      debug, info, warn or error (default info)
//	GUISE_DATABASE_URL   database URL handed to the demo graph
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := run(); err != nil {
		slog.Error("inspectd exited with error", "error", err)
		os.Exit(1)
	}
}
