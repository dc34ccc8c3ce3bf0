// Package msgcodec encrypts direct messages at rest with RSA-OAEP (SHA-256).
//
// Plaintext longer than one OAEP block is split into chunks; each chunk is
// encrypted separately and the base64 chunks are joined with '.'.
package msgcodec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformed = errors.New("malformed ciphertext")

type Codec struct {
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
}

func New(priv *rsa.PrivateKey, pub *rsa.PublicKey) *Codec {
	if pub == nil && priv != nil {
		pub = &priv.PublicKey
	}
	return &Codec{priv: priv, pub: pub}
}

func (c *Codec) chunkSize() int {
	return c.pub.Size() - 2*sha256.Size - 2
}

func (c *Codec) Encrypt(plain string) (string, error) {
	data := []byte(plain)
	size := c.chunkSize()
	parts := make([]string, 0, len(data)/size+1)
	for {
		n := min(size, len(data))
		block, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, c.pub, data[:n], nil)
		if err != nil {
			return "", fmt.Errorf("encrypt: %w", err)
		}
		parts = append(parts, base64.StdEncoding.EncodeToString(block))
		data = data[n:]
		if len(data) == 0 {
			break
		}
	}
	return strings.Join(parts, "."), nil
}

func (c *Codec) Decrypt(cipher string) (string, error) {
	if c.priv == nil {
		return "", errors.New("decrypt: no private key loaded")
	}
	if cipher == "" {
		return "", ErrMalformed
	}
	var out []byte
	for _, part := range strings.Split(cipher, ".") {
		block, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		plain, err := rsa.DecryptOAEP(sha256.New(), nil, c.priv, block, nil)
		if err != nil {
			return "", fmt.Errorf("decrypt: %w", err)
		}
		out = append(out, plain...)
	}
	return string(out), nil
}
