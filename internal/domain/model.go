package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// BootstrapAdminEmail always maps to the admin role, even when the profile
// backend cannot be reached. Intended for demo/evaluation environments only.
const BootstrapAdminEmail = "admin@example.com"

// Identity is the auth provider's notion of who is signed in. Immutable for
// the lifetime of a session.
type Identity struct {
	ProviderID  string `json:"provider_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Profile is the application's own persisted record about a user, keyed 1:1
// by the provider id. It outlives sessions.
type Profile struct {
	ProviderID string                 `gorm:"type:text;primaryKey" json:"provider_id"`
	Name       string                 `gorm:"type:text;not null" json:"name"`
	Role       string                 `gorm:"type:text;not null;default:user" json:"role"`
	Sections   map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"sections"`
	CreatedAt  time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "user_profile" }

// NewProfile seeds the empty portfolio sections every fresh account starts
// with. Role is admin only for the bootstrap address.
func NewProfile(identity Identity) *Profile {
	role := RoleUser
	if identity.Email == BootstrapAdminEmail {
		role = RoleAdmin
	}
	return &Profile{
		ProviderID: identity.ProviderID,
		Name:       identity.DisplayName,
		Role:       role,
		Sections: map[string]interface{}{
			"personalInfo": map[string]interface{}{},
			"projects":     []interface{}{},
			"experience":   []interface{}{},
			"education":    []interface{}{},
			"skills":       []interface{}{},
		},
	}
}

// Session is the merged, consumer-facing view combining Identity and (when
// available) Profile. Never persisted; recomputed on every auth transition.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Merge folds a profile into an identity. Profile name/role win over the
// provider's raw display name and the default role.
func Merge(identity Identity, profile *Profile) Session {
	s := Fallback(identity)
	if profile == nil {
		return s
	}
	if profile.Name != "" {
		s.Name = profile.Name
	}
	if profile.Role != "" {
		s.Role = profile.Role
	}
	if !profile.CreatedAt.IsZero() {
		s.CreatedAt = profile.CreatedAt
	}
	return s
}

// Fallback builds a session from identity data alone.
func Fallback(identity Identity) Session {
	role := RoleUser
	if identity.Email == BootstrapAdminEmail {
		role = RoleAdmin
	}
	return Session{
		ID:        identity.ProviderID,
		Email:     identity.Email,
		Name:      identity.DisplayName,
		Role:      role,
		CreatedAt: time.Now(),
	}
}

// LocalCredential is a fallback-mode account record, stored locally when no
// cloud provider is configured.
type LocalCredential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken represents a persisted refresh session.
type RefreshToken struct {
	ID               string     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           string     `gorm:"type:text;index;not null" json:"user_id"`
	RefreshTokenHash string     `gorm:"type:text;not null" json:"-"`
	ExpiresAt        time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (RefreshToken) TableName() string { return "auth_refresh_token" }
