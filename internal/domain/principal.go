package domain

// AuthMethod describes how a caller authenticated with the API.
type AuthMethod string

const (
	AuthMethodJWT     AuthMethod = "jwt"
	AuthMethodGateway AuthMethod = "gateway"
)

// Principal captures the authenticated forum user independent of auth mechanism.
// Every domain operation receives it explicitly.
type Principal struct {
	UserID     uint
	AuthMethod AuthMethod
	Subject    string
	Issuer     string
	Username   string
}

// Authenticated reports whether the principal identifies a forum user.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}
