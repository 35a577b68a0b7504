package driving

import (
	"context"

	"github.com/custodia-labs/docaudit/internal/core/domain"
)

// EmailService drafts confirmation emails from analysis results.
type EmailService interface {
	// Compose drafts, checks and renders an email.
	// A draft missing mandatory structure fails with *domain.ValidationError.
	Compose(ctx context.Context, inputs *domain.EmailInputs) (*domain.GeneratedEmail, error)
}
