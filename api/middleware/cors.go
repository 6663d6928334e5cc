package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the configured allowed origins to the API.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
