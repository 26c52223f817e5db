package dto

import (
	"time"

	domainuser "rentora/internal/domain/user"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

type UserList struct {
	Items []UserProfile `json:"items"`
	Total int           `json:"total"`
}

func MapUserProfile(user *domainuser.User) UserProfile {
	if user == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:        string(user.ID),
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func MapUsers(users []*domainuser.User) UserList {
	items := make([]UserProfile, 0, len(users))
	for _, u := range users {
		items = append(items, MapUserProfile(u))
	}
	return UserList{Items: items, Total: len(items)}
}

func NewAuthResponse(user *domainuser.User, token string) AuthResponse {
	return AuthResponse{User: MapUserProfile(user), Token: token}
}
