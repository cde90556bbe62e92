package dto

// ForgotPasswordReq represents the request body for /password/email.
type ForgotPasswordReq struct {
	Email string `json:"email"`
}

// ValidateTokenReq represents the request body for /password/validate-token.
type ValidateTokenReq struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// ResetPasswordReq represents the request body for /password/reset.
type ResetPasswordReq struct {
	Token                string `json:"token"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}
