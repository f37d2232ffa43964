package services

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var ErrInvalidCiphertext = errors.New("invalid encrypted client secret")

// CheckoutEncryptionService seals intent client secrets before they are embedded in a redirect
type CheckoutEncryptionService struct {
	masterKey []byte
}

func NewCheckoutEncryptionService(masterKey string) *CheckoutEncryptionService {
	return &CheckoutEncryptionService{masterKey: []byte(masterKey)}
}

// EncryptClientSecret returns base64url(nonce || ciphertext) under a key bound to the customer
func (s *CheckoutEncryptionService) EncryptClientSecret(customerID, clientSecret string) (string, error) {
	aead, err := s.aead(customerID)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(clientSecret), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptClientSecret reverses EncryptClientSecret for the same customer
func (s *CheckoutEncryptionService) DecryptClientSecret(customerID, encrypted string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil || len(sealed) < chacha20poly1305.NonceSizeX {
		return "", ErrInvalidCiphertext
	}

	aead, err := s.aead(customerID)
	if err != nil {
		return "", err
	}

	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

func (s *CheckoutEncryptionService) aead(customerID string) (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, s.masterKey, nil, []byte("wcpay-client-secret:"+customerID))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return aead, nil
}
