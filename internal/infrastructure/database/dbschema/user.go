package dbschema

import (
	"time"

	"tieba-server/services/messaging-api/internal/domain/user"
)

// User mirrors the forum identity table. The messaging service never writes it
// outside of tests and local seeding.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	Nickname  string    `gorm:"type:varchar(150);not null;default:''"`
	Avatar    string    `gorm:"type:varchar(500);not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// UserSettings carries the per-user messaging preferences.
type UserSettings struct {
	UserID               uint `gorm:"primaryKey"`
	AllowPrivateMessages bool `gorm:"not null;default:true"`
}

func (UserSettings) TableName() string { return "user_settings" }

// UserProfile is the projection of users LEFT JOIN user_settings.
type UserProfile struct {
	ID                   uint
	Username             string
	Nickname             string
	Avatar               string
	AllowPrivateMessages bool
}

// EtoD converts the projection to the domain user.
func (p *UserProfile) EtoD() *user.User {
	return &user.User{
		ID:                   p.ID,
		Username:             p.Username,
		Nickname:             p.Nickname,
		Avatar:               p.Avatar,
		AllowPrivateMessages: p.AllowPrivateMessages,
	}
}
