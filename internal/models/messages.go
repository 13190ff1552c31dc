package models

// Message codes used in form redirects. Handlers place the code in a query
// parameter and the front end resolves it to copy; keeping the catalog here
// keeps wording consistent across flows.
const (
	MsgLoginFailed          = "login_failed"
	MsgTooManyAttempts      = "too_many_attempts"
	MsgLoggedOut            = "logged_out"
	MsgEmailExists          = "email_exists"
	MsgRegistrationDisabled = "registration_disabled"
	MsgRegistrationFailed   = "registration_failed"
	MsgConfirmationSent     = "confirmation_sent"
	MsgConfirmationExpired  = "confirmation_expired"
	MsgEmailSendFailed      = "email_failed"
	MsgPasswordMismatch     = "password_mismatch"
	MsgWeakPassword         = "weak_password"
	MsgPasswordResetSent    = "password_reset_sent"
	MsgPasswordResetFailed  = "password_reset_failed"
	MsgPasswordUpdated      = "password_updated"
	MsgPasswordSet          = "password_set"
	MsgInvalidEmail         = "invalid_email"
	MsgEmailDisposable      = "email_disposable"
	MsgEmailRoleAccount     = "email_role_account"
	MsgEmailNoMx            = "email_no_mx"
	MsgEmailInboxFull       = "email_inbox_full"
	MsgEmailDisabled        = "email_disabled"
	MsgEmailUnsafe          = "email_unsafe"
	MsgEmailUndeliverable   = "email_undeliverable"
	MsgRequiredFields       = "required_fields"
	MsgInvalidKey           = "invalid_key"
	MsgInvalidNonce         = "invalid_nonce"
	MsgChallengeFailed      = "security_verification_failed"
	MsgGenericError         = "generic_error"
)

var messageCatalog = map[string]string{
	MsgLoginFailed:          "Invalid email or password.",
	MsgTooManyAttempts:      "Too many attempts. Please try again later.",
	MsgLoggedOut:            "You have been logged out successfully.",
	MsgEmailExists:          "This email address is already registered.",
	MsgRegistrationDisabled: "Account registration is currently disabled.",
	MsgRegistrationFailed:   "Registration failed. Please try again.",
	MsgConfirmationSent:     "Please check your email to confirm your registration.",
	MsgConfirmationExpired:  "The confirmation link has expired. Please register again.",
	MsgEmailSendFailed:      "We could not send the confirmation email. Please try again.",
	MsgPasswordMismatch:     "The passwords do not match.",
	MsgWeakPassword:         "Passwords must be at least 12 characters long and include an uppercase letter, a lowercase letter and a number.",
	MsgPasswordResetSent:    "Password reset instructions have been sent to your email.",
	MsgPasswordResetFailed:  "Password reset failed. Please try again.",
	MsgPasswordUpdated:      "Your password has been updated successfully.",
	MsgPasswordSet:          "Your password has been set successfully. Please log in.",
	MsgInvalidEmail:         "Please enter a valid email address.",
	MsgEmailDisposable:      "Please use a permanent email address. Temporary or disposable email addresses are not allowed.",
	MsgEmailRoleAccount:     "Please use a personal email address. Role-based email addresses (like info@, admin@, etc.) are not allowed.",
	MsgEmailNoMx:            "This email address appears to be invalid. The domain does not accept emails. Please check the address or use a different one.",
	MsgEmailInboxFull:       "This email inbox is full. Please use a different email address.",
	MsgEmailDisabled:        "This email address has been disabled. Please use a different email address.",
	MsgEmailUnsafe:          "This email address has been flagged as potentially unsafe. Please use a different email address.",
	MsgEmailUndeliverable:   "This email address could not be verified. Please check the address or use a different one.",
	MsgRequiredFields:       "Please fill in all required fields.",
	MsgInvalidKey:           "Invalid or expired key. Please try again.",
	MsgInvalidNonce:         "Security verification failed. Please try again.",
	MsgChallengeFailed:      "Please complete the security verification before submitting the form.",
	MsgGenericError:         "An error occurred. Please try again.",
}

// MessageText resolves a message code to its human-readable text. Unknown
// codes fall back to the generic error copy.
func MessageText(code string) string {
	if text, ok := messageCatalog[code]; ok {
		return text
	}
	return messageCatalog[MsgGenericError]
}
