package users

import "time"

// Role labels what a signed-in user is allowed to see. The server reports
// it; enforcement happens in the UI.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Account stores the sign-in credentials. The password is kept only as a
// bcrypt hash.
type Account struct {
	ID           string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:100;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Account) TableName() string {
	return "accounts"
}

// Profile carries the display fields shown on documents and reports.
type Profile struct {
	AccountID  string    `gorm:"column:account_id;primaryKey;size:190;not null" json:"account_id"`
	FullName   string    `gorm:"column:full_name;size:190" json:"full_name"`
	Position   string    `gorm:"column:position;size:190" json:"position"`
	Department string    `gorm:"column:department;size:190" json:"department"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// UserRole assigns one role to one account.
type UserRole struct {
	AccountID string    `gorm:"column:account_id;primaryKey;size:190;not null" json:"account_id"`
	Role      Role      `gorm:"column:role;size:32;not null" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (UserRole) TableName() string {
	return "user_roles"
}
