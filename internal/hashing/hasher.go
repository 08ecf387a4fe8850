package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"registration-wizard/internal/config"
)

var ErrInvalidHash = errors.New("invalid hash format")

const (
	algorithm  = "argon2id-v1"
	saltLength = 16
	keyLength  = 32
)

type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams follow the OWASP minimum for argon2id
var DefaultParams = Argon2Params{Memory: 19 * 1024, Iterations: 2, Parallelism: 1}

type Hasher struct {
	params Argon2Params
	pepper []byte
}

type HashResult struct {
	Hash      string `json:"hash"`
	Salt      string `json:"salt"`
	Algorithm string `json:"algorithm"`
}

// NewHasher creates a hasher with a per-process random pepper. Hashes made
// by one process cannot be verified by another, which suits short-lived codes.
func NewHasher(params Argon2Params) (*Hasher, error) {
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		params = DefaultParams
	}
	pepper := make([]byte, 32)
	if _, err := rand.Read(pepper); err != nil {
		return nil, fmt.Errorf("failed to generate pepper: %w", err)
	}
	return &Hasher{params: params, pepper: pepper}, nil
}

func NewHasherFromConfig(cfg *config.Config) (*Hasher, error) {
	return NewHasher(Argon2Params{
		Memory:      cfg.OTP.Argon2Memory,
		Iterations:  cfg.OTP.Argon2Time,
		Parallelism: cfg.OTP.Argon2Threads,
	})
}

// HashCode hashes a one-time code with a fresh salt
func (h *Hasher) HashCode(code string) (*HashResult, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	sum := h.sum(code, salt, keyLength)
	return &HashResult{
		Hash:      base64.RawURLEncoding.EncodeToString(sum),
		Salt:      base64.RawURLEncoding.EncodeToString(salt),
		Algorithm: algorithm,
	}, nil
}

// VerifyCode compares in constant time
func (h *Hasher) VerifyCode(code string, result *HashResult) (bool, error) {
	if result == nil || result.Algorithm != algorithm {
		return false, ErrInvalidHash
	}
	salt, err := base64.RawURLEncoding.DecodeString(result.Salt)
	if err != nil {
		return false, ErrInvalidHash
	}
	expected, err := base64.RawURLEncoding.DecodeString(result.Hash)
	if err != nil {
		return false, ErrInvalidHash
	}

	computed := h.sum(code, salt, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func (h *Hasher) sum(code string, salt []byte, length uint32) []byte {
	data := append([]byte(code), h.pepper...)
	return argon2.IDKey(data, salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, length)
}

// DeriveKey stretches a configured secret into a symmetric key. It is
// deterministic (no pepper) so every process derives the same key.
func DeriveKey(secret string, salt []byte, size uint32) []byte {
	p := DefaultParams
	return argon2.IDKey([]byte(secret), salt, p.Iterations, p.Memory, p.Parallelism, size)
}
