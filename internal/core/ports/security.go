package ports

// SecurityPort defines the interface for encrypting and decrypting
// sensitive data (the bank-account sub-record fields). Repositories
// apply it at the persistence boundary so the domain layer always
// sees plaintext.
type SecurityPort interface {
	// Encrypt takes a plaintext and returns a secure, encrypted ciphertext.
	Encrypt(plaintext []byte) (ciphertext []byte, err error)

	// Decrypt takes a ciphertext and returns the original plaintext.
	Decrypt(ciphertext []byte) (plaintext []byte, err error)
}

// PasswordPort hashes and verifies user passwords.
type PasswordPort interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}
