package auth

import "rentora/internal/domain/user"

// Actor identifies who is performing an operation. It is passed explicitly into every engine call.
type Actor struct {
	UserID user.ID
	Role   user.Role
}

// System is the actor used by scheduled jobs.
var System = Actor{UserID: "system", Role: user.RoleSystem}

func (a Actor) IsZero() bool {
	return a.UserID == "" || a.Role == ""
}

func (a Actor) Is(role user.Role) bool {
	return a.Role == role
}
