package model

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleAdmin      = "admin"
	RoleControleur = "controleur"
	RoleLivreur    = "livreur"
	RoleUser       = "utilisateur"
)

// User represents a back-office account. Roles drive route-level access only;
// the core services consume users purely as actor ids.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone    string    `gorm:"type:varchar(20)" json:"phone"`
	Password string    `gorm:"type:varchar(255);not null" json:"-"`
	Role     string    `gorm:"type:varchar(50);not null;default:'utilisateur'" json:"role"`
	IsActive bool      `gorm:"not null;default:true" json:"is_active"`

	AuditFields
	SoftDelete
}

// DisplayName is what history entries show as the acting user.
func (u *User) DisplayName() string {
	return u.Username
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
