package models

// User represents a user in the database.
type User struct {
	ID           string `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Token        string `db:"token" json:"token"`
}

// CredentialsRequest is the body of both the register and login endpoints.
// Fields are validated by the auth service so that blank values produce the
// API's own messages.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse wraps a user for the auth endpoints.
type UserResponse struct {
	User *User `json:"user"`
}
