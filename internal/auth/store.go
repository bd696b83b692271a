// Package auth persists the backend session tokens encrypted at rest, so
// a restarted engine resumes its calendar session without a fresh login.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// Session is the engine's view of the upstream authorization state.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Account      string `json:"account"`
}

// Store encrypts sessions to a single file with a key derived from the
// operator-supplied passphrase.
type Store struct {
	Path string
}

func (s Store) Save(session Session, passphrase string) error {
	if s.Path == "" {
		return fmt.Errorf("session store path is required")
	}
	plaintext, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("salt: %w", err)
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	blob := append(append(salt, nonce...), ciphertext...)
	if err := os.WriteFile(s.Path, blob, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s Store) Load(passphrase string) (Session, error) {
	if s.Path == "" {
		return Session{}, fmt.Errorf("session store path is required")
	}
	blob, err := os.ReadFile(s.Path)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if len(blob) < saltSize {
		return Session{}, fmt.Errorf("invalid encrypted session")
	}
	salt := blob[:saltSize]
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return Session{}, err
	}
	if len(blob) < saltSize+gcm.NonceSize() {
		return Session{}, fmt.Errorf("invalid encrypted session")
	}
	nonce := blob[saltSize : saltSize+gcm.NonceSize()]
	ciphertext := blob[saltSize+gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Session{}, fmt.Errorf("decrypt session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passphrase), salt, 3, 64*1024, 4, 32)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return gcm, nil
}
