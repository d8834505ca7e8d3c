package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the verified contents of a permission token. A nil Permissions slice
// means the claim was absent; an empty one means it was present but granted nothing.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether permission was granted.
func (c *Claims) HasPermission(permission string) bool {
	if c == nil {
		return false
	}
	for _, granted := range c.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}
