package auth

import "github.com/estatebid/estatebid-api/internal/user"

// IsAllowed reports whether role is one of allowed
func IsAllowed(role user.Role, allowed ...user.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
