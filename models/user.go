package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User never serializes its password hash or reset fields to JSON.
type User struct {
	ID                        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name                      string             `json:"name" bson:"name"`
	Email                     string             `json:"email" bson:"email"`
	Password                  string             `json:"-" bson:"password"`
	Role                      string             `json:"role" bson:"role"`
	Title                     string             `json:"title" bson:"title"`
	IsAdmin                   bool               `json:"isAdmin" bson:"isAdmin"`
	IsActive                  bool               `json:"isActive" bson:"isActive"`
	ResetPasswordOTP          string             `json:"-" bson:"resetPasswordOTP,omitempty"`
	ResetPasswordExpires      *time.Time         `json:"-" bson:"resetPasswordExpires,omitempty"`
	ResetPasswordToken        string             `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordTokenExpires *time.Time         `json:"-" bson:"resetPasswordTokenExpires,omitempty"`
	CreatedAt                 time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt                 time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ClearReset drops every password-reset field.
func (u *User) ClearReset() {
	u.ResetPasswordOTP = ""
	u.ResetPasswordExpires = nil
	u.ResetPasswordToken = ""
	u.ResetPasswordTokenExpires = nil
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Title:    u.Title,
		Role:     u.Role,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}

type UserSummary struct {
	ID        primitive.ObjectID `json:"_id"`
	Name      string             `json:"name"`
	Title     string             `json:"title"`
	Role      string             `json:"role"`
	Email     string             `json:"email"`
	IsActive  bool               `json:"isActive"`
	CreatedAt *time.Time         `json:"createdAt,omitempty"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  primitive.ObjectID
	Email   string
	IsAdmin bool
}

type UserStats struct {
	TotalUsers  int64 `json:"totalUsers"`
	ActiveUsers int64 `json:"activeUsers"`
	AdminUsers  int64 `json:"adminUsers"`
}

// TaskStatusRef is a task reduced to what the team status view shows.
type TaskStatusRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Title string             `json:"title"`
	Stage Stage              `json:"stage"`
}

type UserTaskStatus struct {
	UserSummary
	Tasks []TaskStatusRef `json:"tasks"`
}
