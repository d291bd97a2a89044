package cli

import (
	"context"
	"fmt"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/auth"
)

// token issues an access token locally with the configured signing secret.
func (a *App) token(_ context.Context, args []string) error {
	role := auth.Role(args[1])
	if !role.Valid() {
		return fmt.Errorf("%w: role must be vendor, admin or proxy", ErrUsage)
	}

	secret := a.config.SecretKey
	if secret == "" {
		s, err := GetSecret("Enter signing secret", a.out)
		if err != nil {
			return err
		}
		secret = s
	}
	if secret == "" {
		return fmt.Errorf("%w: signing secret required", ErrUsage)
	}

	tok, err := auth.GenerateToken(args[0], role, []byte(secret), a.config.TokenValidity)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, tok)
	return nil
}
