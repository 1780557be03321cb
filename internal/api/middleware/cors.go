// Package middleware provides the HTTP middleware stack: CORS for the shell
// frontend, per-terminal rate limiting and token authentication for
// operational mutations.
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS permits the shell frontend and kiosk terminals to call the API from
// their own origins.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"}, // Terminals sit on a closed LAN
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Accept",
			"Origin",
		},
		MaxAge: 12 * time.Hour,
	})
}
