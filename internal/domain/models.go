// Package domain defines the marketplace entities shared across layers.
package domain

import "time"

// Role classifies a user account.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Project is a marketplace posting owned by a user.
type Project struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Budget        float64    `json:"budget"`
	Priced        *float64   `json:"priced,omitempty"`
	IsOpenBidding bool       `json:"isOpenBidding"`
	IsCompleted   bool       `json:"isCompleted"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	UserID        string     `json:"userId"`
	User          *User      `json:"user,omitempty"`
	Message       *Message   `json:"message,omitempty"`
}

// Message is the single discussion thread entry attached to a project.
// A project holds at most one message.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ProjectID string    `json:"projectId"`
}
