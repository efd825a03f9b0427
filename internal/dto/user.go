package dto

import (
	"time"

	"github.com/SscSPs/identity_service/internal/core/domain"
)

// UserResponse is the public view of a user. Secrets and hashes never leave
// the service.
type UserResponse struct {
	UserID      string      `json:"userID"`
	Email       string      `json:"email"`
	Username    string      `json:"username"`
	Role        domain.Role `json:"role"`
	MfaEnabled  bool        `json:"mfaEnabled"`
	HasPassword bool        `json:"hasPassword"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ToUserResponse converts a domain.User to UserResponse DTO
func ToUserResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		UserID:      user.UserID,
		Email:       user.Email,
		Username:    user.Username,
		Role:        user.Role,
		MfaEnabled:  user.MfaEnabled,
		HasPassword: user.HasPassword(),
		CreatedAt:   user.CreatedAt,
	}
}

// ListUsersParams defines query parameters for listing users.
type ListUsersParams struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// ListUsersResponse wraps the list of users.
type ListUsersResponse struct {
	Users  []UserResponse `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ToListUserResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUserResponse(users []domain.User, params ListUsersParams) ListUsersResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = ToUserResponse(&users[i])
	}
	return ListUsersResponse{
		Users:  userResponses,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
}

// SetRoleRequest promotes or demotes a user.
type SetRoleRequest struct {
	Role domain.Role `json:"role" binding:"required,oneof=user admin"`
}
