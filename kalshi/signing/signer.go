package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/betbot/gokalshi/internal/domain"
)

// Request header names the exchange authenticates on.
const (
	HeaderAccessKey       = "KALSHI-ACCESS-KEY"
	HeaderAccessSignature = "KALSHI-ACCESS-SIGNATURE"
	HeaderAccessTimestamp = "KALSHI-ACCESS-TIMESTAMP"
)

// Signer produces authorized request headers from an RSA private key.
// The signed message is timestamp+METHOD+path; the signature is RSA-PSS
// SHA-256 with salt length equal to the digest length.
type Signer struct {
	keyID string
	key   *rsa.PrivateKey
	now   func() time.Time
}

// NewSignerFromFile loads a PEM private key from disk. An unreadable or
// malformed key file yields a KeyError.
func NewSignerFromFile(keyID, path string) (*Signer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.KeyError{Path: path, Err: err}
	}
	return NewSignerFromPEM(keyID, b)
}

// NewSignerFromPEM parses a PEM-encoded RSA private key (PKCS#8 or PKCS#1).
// Malformed key material yields a KeyError identified by the key id.
func NewSignerFromPEM(keyID string, pemBytes []byte) (*Signer, error) {
	key, err := parsePEMKey(pemBytes)
	if err != nil {
		return nil, &domain.KeyError{Path: keyID, Err: err}
	}

	return &Signer{keyID: keyID, key: key, now: time.Now}, nil
}

func parsePEMKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not RSA")
		}
		return rsaKey, nil
	}
	if parsed, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return parsed, nil
	}
	return nil, fmt.Errorf("private key is neither PKCS#8 nor PKCS#1")
}

// KeyID returns the configured access key id.
func (s *Signer) KeyID() string {
	return s.keyID
}

// Sign builds the authorization headers for one request. path must exclude
// the query string. The timestamp is fresh per call (millisecond unix).
func (s *Signer) Sign(method, path string) (map[string]string, error) {
	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	sig, err := s.sign(timestamp, method, path)
	if err != nil {
		return nil, &domain.KeyError{Path: s.keyID, Err: err}
	}
	return map[string]string{
		HeaderAccessKey:       s.keyID,
		HeaderAccessSignature: sig,
		HeaderAccessTimestamp: timestamp,
		"Content-Type":        "application/json",
	}, nil
}

func (s *Signer) sign(timestamp, method, path string) (string, error) {
	msg := []byte(timestamp + method + path)
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
