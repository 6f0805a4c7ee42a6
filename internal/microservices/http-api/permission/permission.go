// Package permission holds the access predicates shared by the route
// middleware and the services. All functions are pure; a nil user is an
// anonymous requester.
package permission

import (
	"net/http"

	"yamdb/internal/microservices/http-api/models"
)

// IsSafeMethod reports whether method only reads.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// IsAdmin is true for the admin role and for superusers.
func IsAdmin(u *models.User) bool {
	return u != nil && (u.Role == models.RoleAdmin || u.IsSuperuser)
}

// IsModerator is true for the moderator role only.
func IsModerator(u *models.User) bool {
	return u != nil && u.Role == models.RoleModerator
}

// IsElevated covers everyone allowed to edit other people's content.
func IsElevated(u *models.User) bool {
	return IsModerator(u) || IsAdmin(u)
}

// IsAdminOrReadOnly lets anyone read and only admins write.
func IsAdminOrReadOnly(method string, u *models.User) bool {
	return IsSafeMethod(method) || IsAdmin(u)
}

// CanModify reports whether u may change content written by authorID.
func CanModify(u *models.User, authorID string) bool {
	if u == nil {
		return false
	}
	return u.ID == authorID || IsElevated(u)
}

// IsAuthorOrElevatedOrReadOnly is the object-level check for reviews and comments.
func IsAuthorOrElevatedOrReadOnly(method string, u *models.User, authorID string) bool {
	return IsSafeMethod(method) || CanModify(u, authorID)
}
