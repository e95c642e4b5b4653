package api

import "github.com/FocuswithJustin/musictext/core/notation"

// Config holds server configuration.
type Config struct {
	Port              int
	Workers           int             // Pipeline workers per request (0 = one per CPU)
	DefaultSystem     notation.System // Used when a request names no system
	MaxBodyBytes      int64           // Request body limit (0 = server.DefaultMaxBodyBytes)
	RateLimitRequests int             // Requests per minute (0 = disabled)
	RateLimitBurst    int             // Burst size
	TLS               TLSConfig       // TLS configuration
	AllowedOrigins    []string        // CORS and websocket origins (empty = allow all)
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}

// Version is reported by /health. The CLI overrides it at startup.
var Version = "dev"
