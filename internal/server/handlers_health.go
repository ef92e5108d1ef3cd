package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bobthearsonist/meeting-coach/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleReadiness verifies the hub actor is responsive by round-tripping a
// command through it.
func (s *Server) handleReadiness(c echo.Context) error {
	count := s.hub.ClientCount()
	if count < 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":       "unhealthy",
			"failed_check": "hub",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ready",
		"clients": count,
	})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}
