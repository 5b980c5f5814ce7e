// Package auth signs outgoing log store requests with a bearer token.
package auth

import (
	"fmt"
	"net/http"

	"github.com/IBM/go-sdk-core/v5/core"
	"go.uber.org/zap"
)

// Authenticator adds bearer-token authorization to HTTP requests
type Authenticator struct {
	authenticator core.Authenticator
	logger        *zap.Logger
}

// New creates a new authenticator for the given static bearer token
func New(token string, logger *zap.Logger) (*Authenticator, error) {
	if token == "" {
		return nil, fmt.Errorf("bearer token is required")
	}

	authenticator, err := core.NewBearerTokenAuthenticator(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	if err := authenticator.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate authenticator: %w", err)
	}

	return &Authenticator{
		authenticator: authenticator,
		logger:        logger,
	}, nil
}

// Authenticate sets the Authorization header on an HTTP request
func (a *Authenticator) Authenticate(req *http.Request) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}

	if err := a.authenticator.Authenticate(req); err != nil {
		a.logger.Error("Authentication failed", zap.Error(err))
		return fmt.Errorf("authentication failed: %w", err)
	}

	return nil
}
