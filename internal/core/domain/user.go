package domain

import "strings"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// MasterUsername is the reserved administrator that can never be deleted.
const MasterUsername = "mharari"

// User is a CRM login. Passwords are stored as entered unless hashing is
// enabled, in which case they hold a bcrypt hash.
type User struct {
	Username string `json:"username" bson:"_id" validate:"required"`
	Email    string `json:"email" bson:"email" validate:"required,email"`
	Password string `json:"password" bson:"password" validate:"required"`
	Name     string `json:"name" bson:"name" validate:"required"`
	Role     string `json:"role" bson:"role" validate:"required,oneof=admin user"`
}

// DefaultAdmin returns the bootstrap master administrator.
func DefaultAdmin() User {
	return User{
		Username: MasterUsername,
		Email:    "manuel@harari.mx",
		Password: "admin",
		Name:     "Manuel Harari",
		Role:     RoleAdmin,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsMaster reports whether u is the reserved master admin.
func (u User) IsMaster() bool { return u.Username == MasterUsername }

// Matches reports whether identifier equals the username or email, ignoring case.
func (u User) Matches(identifier string) bool {
	return strings.EqualFold(u.Username, identifier) || (u.Email != "" && strings.EqualFold(u.Email, identifier))
}

// Public strips the password for responses.
func (u User) Public() User {
	u.Password = ""
	return u
}

// Actor identifies who performs an operation. It is what a session token
// carries about its user.
type Actor struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Actor returns the acting identity of u.
func (u User) Actor() Actor {
	return Actor{Username: u.Username, Email: u.Email, Name: u.Name, Role: u.Role}
}
