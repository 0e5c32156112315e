package user

import "context"

// User is the forum identity referenced by messaging. Profiles are owned by the
// identity platform; this service only reads them.
type User struct {
	ID                   uint
	Username             string
	Nickname             string
	Avatar               string
	AllowPrivateMessages bool
}

// DisplayName prefers the nickname over the login name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Directory resolves user profiles. FindByID returns a NotFound platform error
// for unknown ids; FindByIDs silently omits them.
type Directory interface {
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*User, error)
}
