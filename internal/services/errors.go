package services

import "errors"

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmail       = errors.New("please provide a valid email address")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrLinkRefused        = errors.New("an account with this email already exists, sign in with your password")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("please verify your email before logging in")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrNotAdmin           = errors.New("admin privileges required")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidActionToken = errors.New("invalid or expired token")
	ErrPasswordsRequired  = errors.New("current password and new password are required")
	ErrMailFailed         = errors.New("failed to send email")
	ErrInvalidPlanTier    = errors.New("invalid plan, must be monthly, yearly or lifetime")
	ErrInvalidRole        = errors.New("role must be user or admin")
	ErrCannotDeleteSelf   = errors.New("you cannot delete your own account")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrInvalidPlan        = errors.New("invalid plan data")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentNotComplete = errors.New("payment not successful")
	ErrInvalidProfile     = errors.New("invalid profile data")
)
