package dto

import "yamdb/internal/microservices/http-api/models"

// CreateUserDTO for POST /users (admin)
type CreateUserDTO struct {
	Username  string `json:"username" binding:"required,max=150,username,notme"`
	Email     string `json:"email" binding:"required,email,max=254"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Bio       string `json:"bio"`
	Role      string `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

func (in CreateUserDTO) ToModel() models.User {
	role := models.Role(in.Role)
	if role == "" {
		role = models.RoleUser
	}
	return models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      role,
	}
}

// UpdateUserDTO for PATCH /users/{username} and /users/me. Nil fields are left untouched.
type UpdateUserDTO struct {
	Username  *string `json:"username" binding:"omitempty,max=150,username,notme"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

// Apply copies the set fields onto u.
func (in UpdateUserDTO) Apply(u *models.User, allowRole bool) {
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if allowRole && in.Role != nil {
		u.Role = models.Role(*in.Role)
	}
}

type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func UserFromModel(u models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
	}
}
