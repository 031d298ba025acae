/*
Package auth defines the mechanisms used to derive a storable credential
from a supplied plaintext password and to verify a presented password
against such a stored credential. Implementations include a bcrypt-based
verifier for production use and a plaintext comparison verifier for
development setups and tests.
*/
package auth
