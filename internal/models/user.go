package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values assigned to users. New accounts always start as RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Address is a structured postal address, stored as jsonb
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

// User represents a user account created on first Google login
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ImgURL    *string   `json:"img_url,omitempty"`
	Role      string    `json:"role"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the sanitized view of a user returned from login
type Profile struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	ImgURL  *string   `json:"img_url,omitempty"`
	Role    string    `json:"role"`
	Phone   *string   `json:"phone,omitempty"`
	Address *Address  `json:"address,omitempty"`
}

// ProfileOf builds the login profile view from a user record
func ProfileOf(u *User) *Profile {
	return &Profile{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		ImgURL:  u.ImgURL,
		Role:    u.Role,
		Phone:   u.Phone,
		Address: u.Address,
	}
}
