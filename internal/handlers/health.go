package handlers

import "github.com/m1z23r/drift/pkg/drift"

// Health reports process liveness.
func Health(c *drift.Context) {
	_ = c.JSON(200, map[string]string{"status": "ok"})
}
