package services

import (
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	defaultNonceLifetime = 24 * time.Hour
	nonceLength          = 10
)

// NonceService issues short-lived tokens bound to an action and a subject.
// A nonce is valid for the tick it was created in and the one after, each tick lasting half the lifetime.
type NonceService struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func NewNonceService(secret string) *NonceService {
	return &NonceService{
		secret:   []byte(secret),
		lifetime: defaultNonceLifetime,
		now:      time.Now,
	}
}

// Create returns a nonce for the action and subject in the current tick
func (s *NonceService) Create(action, subject string) string {
	return s.hash(s.tick(), action, subject)
}

// Verify reports whether nonce was created for action and subject in the current or previous tick
func (s *NonceService) Verify(nonce, action, subject string) bool {
	if nonce == "" {
		return false
	}

	tick := s.tick()
	for _, t := range []int64{tick, tick - 1} {
		expected := s.hash(t, action, subject)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(nonce)) == 1 {
			return true
		}
	}
	return false
}

func (s *NonceService) tick() int64 {
	half := int64(s.lifetime / 2 / time.Second)
	return s.now().Unix()/half + 1
}

func (s *NonceService) hash(tick int64, action, subject string) string {
	h, err := blake2b.New256(s.secret)
	if err != nil {
		// blake2b rejects keys longer than 64 bytes; hash the secret down instead
		sum := blake2b.Sum256(s.secret)
		h, _ = blake2b.New256(sum[:])
	}
	h.Write([]byte(strconv.FormatInt(tick, 10) + "|" + action + "|" + subject))
	return hex.EncodeToString(h.Sum(nil))[:nonceLength]
}
