package handlers

import (
	"net/url"
	"strings"
)

// Form names. They double as nonce actions, so a nonce minted for one form
// never validates on another.
const (
	FormLogin          = "login"
	FormRegister       = "register"
	FormForgotPassword = "forgot_password"
	FormResetPassword  = "reset_password"
	FormSetPassword    = "set_password"
)

var knownForms = map[string]bool{
	FormLogin:          true,
	FormRegister:       true,
	FormForgotPassword: true,
	FormResetPassword:  true,
	FormSetPassword:    true,
}

// safeRedirectTarget restricts post-login redirects to same-site paths.
// Anything absolute, protocol-relative or unparsable falls back.
func safeRedirectTarget(raw, fallback string) string {
	if raw == "" {
		return fallback
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}

	return u.String()
}
