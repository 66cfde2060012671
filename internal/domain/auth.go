package domain

import "fmt"

type IdentifierType string

const (
	IdentifierPhone IdentifierType = "phone"
	IdentifierEmail IdentifierType = "email"
)

// CodeRequest is the server's answer to a request-code call. The three
// optional flags select the verification mode the flow enters.
type CodeRequest struct {
	Identifier                string         `json:"identifier"`
	Type                      IdentifierType `json:"type"`
	IsNewUser                 bool           `json:"is_new_user"`
	HasExistingCode           bool           `json:"has_existing_code,omitempty"`
	RequiresManualCodeRequest bool           `json:"requires_manual_code_request,omitempty"`
	Message                   string         `json:"message,omitempty"`
}

func (c *CodeRequest) Validate() error {
	if c.Identifier == "" {
		return fmt.Errorf("code request: missing identifier")
	}
	if c.Type != IdentifierPhone && c.Type != IdentifierEmail {
		return fmt.Errorf("code request: unknown identifier type %q", c.Type)
	}
	return nil
}

// AuthResult is the server's answer to a successful verify-code call.
type AuthResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
	Message      string `json:"message,omitempty"`
}

func (a *AuthResult) Validate() error {
	if a.AccessToken == "" || a.RefreshToken == "" {
		return fmt.Errorf("auth result: missing token pair")
	}
	if a.User == nil {
		return fmt.Errorf("auth result: missing user")
	}
	return a.User.Validate()
}

// Page is the server's pagination envelope for list reads.
type Page[T any] struct {
	Data        []T `json:"data"`
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"current_page"`
}
