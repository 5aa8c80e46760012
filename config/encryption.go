package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// keyDerivationTag is the fixed message signed to derive the AES key. Changing
// it invalidates every existing credentials.enc file.
const keyDerivationTag = "navi-encryption-key-derivation-v1"

// EncryptionManager seals credential blobs at rest with AES-256-GCM. The key
// is derived from a signature made with the user's SSH key, so the key file
// itself is the secret and nothing extra is stored. Ed25519 signatures are
// deterministic, which makes the derivation stable across runs.
type EncryptionManager struct {
	sshKeyPath string
	passphrase string
	aesKey     []byte
}

// NewEncryptionManager creates a manager bound to an SSH private key. Call
// Initialize before Encrypt/Decrypt.
func NewEncryptionManager(sshKeyPath string) *EncryptionManager {
	return &EncryptionManager{sshKeyPath: sshKeyPath}
}

// SetPassphrase supplies the passphrase for an encrypted SSH key.
func (e *EncryptionManager) SetPassphrase(passphrase string) {
	e.passphrase = passphrase
}

// Initialize loads the SSH key and derives the AES key from it.
func (e *EncryptionManager) Initialize() error {
	encrypted, err := IsSSHKeyEncrypted(e.sshKeyPath)
	if err != nil {
		return fmt.Errorf("failed to check SSH key: %w", err)
	}

	var signer ssh.Signer
	switch {
	case encrypted && e.passphrase == "":
		return fmt.Errorf("SSH key is encrypted, passphrase required")
	case encrypted:
		signer, err = LoadSSHPrivateKeyWithPassphrase(e.sshKeyPath, e.passphrase)
	default:
		signer, err = LoadSSHPrivateKey(e.sshKeyPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load SSH key: %w", err)
	}

	signature, err := signer.Sign(rand.Reader, []byte(keyDerivationTag))
	if err != nil {
		return fmt.Errorf("failed to derive encryption key: %w", err)
	}
	key := sha256.Sum256(signature.Blob)
	e.aesKey = key[:]

	return nil
}

// Encrypt seals a plaintext blob. Output format: nonce || ciphertext+tag.
func (e *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := e.cipher()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. Tampering or a mismatched key
// fails authentication.
func (e *EncryptionManager) Decrypt(blob []byte) ([]byte, error) {
	gcm, err := e.cipher()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

func (e *EncryptionManager) cipher() (cipher.AEAD, error) {
	if e.aesKey == nil {
		return nil, fmt.Errorf("encryption manager not initialized")
	}

	block, err := aes.NewCipher(e.aesKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
