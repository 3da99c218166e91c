package command

type ForgotPasswordCommand struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordCommand struct {
	Token           string `json:"-" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ChangePasswordCommand carries the caller's session token; it is checked
// before any of the password fields.
type ChangePasswordCommand struct {
	SessionToken    string `json:"-"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type MessageResult struct {
	Message string `json:"message"`
}
