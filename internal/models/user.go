package models

// Role is the entitlement tier stored on a user.
type Role string

const (
	RoleFree    Role = "free"
	RolePremium Role = "premium"
)

// User is the internal account every resource is owned by.
type User struct {
	Base
	Name string `gorm:"not null" json:"name"`
	Role Role   `gorm:"column:rol;not null;default:'free'" json:"rol"`
}

// IdentityLink maps an external identity-provider subject to a User.
type IdentityLink struct {
	Base
	ExternalID string `gorm:"column:clerk_user_id;uniqueIndex;not null" json:"clerk_user_id"`
	UserID     string `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
