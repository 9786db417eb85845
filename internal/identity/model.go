package identity

// User represents a row in the app_user table. The id is the external
// identity provider's subject, so the same person always maps to the same
// row regardless of how often they sign in.
type User struct {
	ID          string
	Email       *string
	DisplayName *string
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}
