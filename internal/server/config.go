package server

import (
	"time"

	"github.com/raysh454/browserbridge/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":3000".
	ListenAddr string

	// MaxBodyBytes caps the size of a /v1 request body.
	MaxBodyBytes int64

	// ReadTimeout bounds reading a request, not serving it.
	ReadTimeout time.Duration

	Logger logging.Logger
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:   ":3000",
		MaxBodyBytes: 1 << 20,
		ReadTimeout:  15 * time.Second,
	}
}
