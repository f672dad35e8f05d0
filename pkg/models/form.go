package models

// Credentials is the login form and the body of /login and /register.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationForm is what the registration screen collects. Only Email and
// Password are sent to the backend.
type RegistrationForm struct {
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// ProfileForm represents the fields of the edit-profile screen
type ProfileForm struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ProfileUpdate is the body of PUT /edit_profile.
type ProfileUpdate struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}
