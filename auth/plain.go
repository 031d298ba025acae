package auth

// Structs

// PlainVerifier stores and compares passwords as-is.
// It exists for development setups and tests where
// bcrypt's work factor only slows things down. Never
// select it for a deployment facing real users.
type PlainVerifier struct{}

// Functions

// NewPlainVerifier returns an initialized
// plaintext comparison verifier.
func NewPlainVerifier() *PlainVerifier {
	return &PlainVerifier{}
}

// Hash returns the supplied password unchanged.
func (v *PlainVerifier) Hash(plain string) (string, error) {
	return plain, nil
}

// Compare checks the presented password against
// the stored one with a simple string comparison.
func (v *PlainVerifier) Compare(plain string, stored string) bool {
	return plain == stored
}
