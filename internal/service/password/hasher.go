package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2ID = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// HasherConfig holds argon2id cost parameters. The parameters are embedded
// in every produced hash, so verification is self-describing.
type HasherConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHasherConfig follows current argon2id guidance: 64 MiB, 3 passes
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies passwords with argon2id.
// Legacy bcrypt hashes still verify and are flagged for rehash.
type Hasher struct {
	cfg HasherConfig
}

func NewHasher(cfg HasherConfig) (*Hasher, error) {
	if err := validateHasherConfig(cfg); err != nil {
		return nil, err
	}

	return &Hasher{cfg: cfg}, nil
}

// Verification is the outcome of comparing a stored hash with a password.
// NeedsRehash signals outdated parameters or algorithm; the caller should
// rehash and persist on the next successful verification.
type Verification struct {
	Matches     bool
	NeedsRehash bool
}

// Hash derives a salted argon2id hash encoded in PHC string format
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}

	salt := make([]byte, h.cfg.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("error while generating salt. Err: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.cfg.Time, h.cfg.Memory, h.cfg.Parallelism, h.cfg.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2ID,
		argon2.Version,
		h.cfg.Memory,
		h.cfg.Time,
		h.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify compares the stored hash with the provided password.
// An empty password always fails without invoking the KDF. The comparison
// is constant-time over the derived keys, so timing does not reveal where
// a mismatch occurs.
func (h *Hasher) Verify(encodedHash string, password string) (Verification, error) {
	if password == "" || encodedHash == "" {
		return Verification{}, nil
	}

	// Legacy bcrypt hashes from before the argon2id migration
	if strings.HasPrefix(encodedHash, "$2a$") || strings.HasPrefix(encodedHash, "$2b$") || strings.HasPrefix(encodedHash, "$2y$") {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		switch {
		case err == nil:
			return Verification{Matches: true, NeedsRehash: true}, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return Verification{}, nil
		default:
			return Verification{}, fmt.Errorf("error while comparing bcrypt hash. Err: %w", err)
		}
	}

	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return Verification{}, err
	}

	computed := argon2.IDKey([]byte(password), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, parsed.keyLength)

	if subtle.ConstantTimeCompare(computed, parsed.key) != 1 {
		return Verification{}, nil
	}

	return Verification{Matches: true, NeedsRehash: h.needsRehash(parsed)}, nil
}

func (h *Hasher) needsRehash(parsed *parsedPHC) bool {
	return parsed.memory != h.cfg.Memory ||
		parsed.time != h.cfg.Time ||
		parsed.parallelism != h.cfg.Parallelism ||
		parsed.keyLength != h.cfg.KeyLength
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
	keyLength   uint32
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid hash format")
	}
	if parts[1] != argon2ID {
		return nil, errors.New("unsupported hash algorithm")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var parsed parsedPHC
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &parsed.memory, &parsed.time, &parsed.parallelism); err != nil {
		return nil, errors.New("invalid argon2 parameters")
	}

	parsed.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}

	parsed.key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid key encoding")
	}
	parsed.keyLength = uint32(len(parsed.key))

	return &parsed, nil
}

func validateHasherConfig(cfg HasherConfig) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("hasher memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("hasher time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("hasher parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("hasher salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("hasher key length must be >= 16")
	}

	return nil
}
