package domain

import "time"

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	PasswordHash string     `json:"-"`
	CNICPassport string     `json:"cnic_passport,omitempty"`
	DOB          *time.Time `json:"dob,omitempty"`
	City         string     `json:"city,omitempty"`
	Address      string     `json:"address,omitempty"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CreatedBy    *int64     `json:"created_by,omitempty"`
	UpdatedBy    *int64     `json:"updated_by,omitempty"`
}
