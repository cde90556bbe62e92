// Package dto defines data transfer objects for the auth feature's HTTP transport layer.
// Validation is field-keyed and lives in the usecases, so these structs carry
// plain json tags only; binding errors here would bypass the 422 envelope.
package dto

// RegisterReq represents the request body for the /register endpoint.
type RegisterReq struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}
