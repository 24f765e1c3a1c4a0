// Package models defines server-side data models persisted in the database.
package models

// User statuses as stored in the users.status column.
const (
	UserStatusUnverified = "unverified"
	UserStatusVerified   = "verified"
)

// User holds account data plus the client-generated key material the server
// stores but can never decrypt.
type User struct {
	ID    int64
	Email string

	// PK is the user's homomorphic public key (large, base64 text).
	PK string
	// EncSK is the user's secret key, encrypted client-side with the master key.
	EncSK string
	// EncMK is the master key, encrypted client-side with the password-derived key.
	EncMK string

	// PwVerifier is the argon2id digest of the password, base64 encoded.
	PwVerifier string
	// Salt is the base64-encoded KDF salt.
	Salt string
	// Argon2id parameters the client must use to reproduce the verifier.
	ArgonMem      int
	ArgonTime     int
	ArgonParallel int

	Status    string
	EmailCode string

	// HasEvalKeys is set once relinearization and Galois keys are uploaded.
	HasEvalKeys bool
}
