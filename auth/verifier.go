package auth

// Interfaces

// Verifier defines the methods required to turn a plaintext
// password into a credential safe to keep in the identity
// store and to check a presented password against it. The
// stores only ever see the output of Hash, never a plaintext.
type Verifier interface {

	// Hash derives the storable credential for
	// a supplied plaintext password.
	Hash(plain string) (string, error)

	// Compare checks a presented plaintext password
	// against a stored credential and reports whether
	// they match.
	Compare(plain string, stored string) bool
}
