package googleforms

import (
	"context"

	"github.com/formbridge/backend/internal/auth"
	"github.com/formbridge/backend/internal/forms"
)

// Provider implements forms.Provider for the real Forms service.
type Provider struct {
	authService *auth.Service
}

// NewProvider creates a new Google Forms provider.
func NewProvider(authService *auth.Service) *Provider {
	return &Provider{authService: authService}
}

// GetAPI returns a Forms client bound to the gated credential. The error is
// returned unwrapped so auth.ErrAuthRequired reaches the handlers intact.
func (p *Provider) GetAPI(ctx context.Context) (forms.API, error) {
	client, err := p.authService.Client(ctx)
	if err != nil {
		return nil, err
	}
	c, err := NewClient(ctx, client)
	if err != nil {
		return nil, err
	}
	return c, nil
}
