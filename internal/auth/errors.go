package auth

// Error is an account failure whose message can be shown to the user.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string       { return e.Msg }
func (e *Error) UserMessage() string { return e.Msg }

// Is matches on Code so errors decoded from the API compare equal to the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidCredentials = &Error{Code: "invalid_credentials", Msg: "Invalid email or password."}
	ErrEmailTaken         = &Error{Code: "email_taken", Msg: "An account with that email already exists."}
	ErrWeakPassword       = &Error{Code: "weak_password", Msg: "Password must be at least 8 characters."}
	ErrPasswordTooLong    = &Error{Code: "password_too_long", Msg: "Password must be at most 72 bytes."}
	ErrInvalidEmail       = &Error{Code: "invalid_email", Msg: "Enter a valid email address."}
	ErrInvalidToken       = &Error{Code: "invalid_token", Msg: "Your session has expired. Please sign in again."}
)
