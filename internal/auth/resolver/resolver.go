package resolver

import (
	"context"

	"github.com/arellanoelden/think-piece/internal/auth"
)

// Resolver maps an external identity onto the internal user it belongs to,
// creating or linking the user as needed.
type Resolver interface {
	Resolve(
		ctx context.Context,
		ext *auth.ExternalIdentity,
	) (*auth.Identity, error)
}
