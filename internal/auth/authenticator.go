package auth

import (
	"context"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

// Authenticator verifies credentials and creates accounts.
// Savings operations never see credentials; they receive the identity and
// role resolved here and carried in the token.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if
	// successful. Inactive accounts fail authentication.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
