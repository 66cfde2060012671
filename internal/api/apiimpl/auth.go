package apiimpl

import (
	"context"
	"net/url"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
)

type identifierBody struct {
	Identifier string `json:"identifier"`
}

func (a *ApiImpl) RequestCode(ctx context.Context, identifier string) (*domain.CodeRequest, error) {
	var out domain.CodeRequest
	if err := a.postJSON(ctx, nil, "/unified-auth/request-code", identifierBody{Identifier: identifier}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) VerifyCode(ctx context.Context, identifier, code string) (*domain.AuthResult, error) {
	body := struct {
		Identifier string `json:"identifier"`
		Code       string `json:"code"`
	}{Identifier: identifier, Code: code}

	var out domain.AuthResult
	if err := a.postJSON(ctx, nil, "/unified-auth/verify-code", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ApiImpl) ResendCode(ctx context.Context, identifier string) error {
	return a.postJSON(ctx, nil, "/unified-auth/resend-code", identifierBody{Identifier: identifier}, nil)
}

func (a *ApiImpl) ForceSendCode(ctx context.Context, identifier string) error {
	return a.postJSON(ctx, nil, "/unified-auth/force-send-code", identifierBody{Identifier: identifier}, nil)
}

// GoogleLoginURL fetches the provider URL, registering the bot's public
// callback endpoint as the redirect target.
func (a *ApiImpl) GoogleLoginURL(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("redirect_uri", a.oauthCallback)

	var out struct {
		AuthURL string `json:"auth_url"`
	}
	if err := a.getJSON(ctx, nil, "/auth/google/login", query, &out); err != nil {
		return "", err
	}
	return out.AuthURL, nil
}
