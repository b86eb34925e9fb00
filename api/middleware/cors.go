package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/config"
)

// CORS applies the configured allowed-origin policy. Credentials are only
// allowed when the origin list is explicit.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, idempotentReplayHeader},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}).Handler
}
