package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// AllowAll returns a middleware that allows all origins. Tokens travel in the
// Authorization header, so no credentialed CORS is needed.
func AllowAll() func(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}).Handler
}
