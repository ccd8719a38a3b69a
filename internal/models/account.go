package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UsernameMaxLen = 50
)

type Account struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName    string     `gorm:"size:50;not null"         json:"first_name"`
	LastName     string     `gorm:"size:50;not null"         json:"last_name"`
	Username     string     `gorm:"size:50;not null"         json:"username"`
	Email        string     `gorm:"size:100;uniqueIndex"     json:"email"`
	PhoneNumber  string     `gorm:"size:50"                  json:"phone_number"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	Role         string     `gorm:"not null;default:user"    json:"role"`
	IsActive     bool       `gorm:"default:false"            json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (a Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

type UserProfile struct {
	ID             uint   `gorm:"primaryKey"         json:"id"`
	AccountID      uint   `gorm:"uniqueIndex"        json:"account_id"`
	AddressLine1   string `gorm:"size:100"           json:"address_line_1"`
	AddressLine2   string `gorm:"size:100"           json:"address_line_2"`
	ProfilePicture string `gorm:"size:255"           json:"profile_picture"`
	City           string `gorm:"size:20"            json:"city"`
	State          string `gorm:"size:20"            json:"state"`
	Country        string `gorm:"size:20"            json:"country"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	JTI       string `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}
