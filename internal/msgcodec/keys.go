package msgcodec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFiles builds a Codec from PEM key files. The private key may be PKCS#8
// or PKCS#1; the public key must be PKIX.
func LoadFiles(privatePath, publicPath string) (*Codec, error) {
	priv, err := readPrivate(privatePath)
	if err != nil {
		return nil, err
	}
	pub, err := readPublic(publicPath)
	if err != nil {
		return nil, err
	}
	return New(priv, pub), nil
}

func readBlock(path string) (*pem.Block, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("read key %s: no PEM block", path)
	}
	return block, nil
}

func readPrivate(path string) (*rsa.PrivateKey, error) {
	block, err := readBlock(path)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("parse private key: not an RSA key")
	}
	return key, nil
}

func readPublic(path string) (*rsa.PublicKey, error) {
	block, err := readBlock(path)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("parse public key: not an RSA key")
	}
	return key, nil
}

func GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// WritePEM stores priv as PKCS#8 and its public half as PKIX.
func WritePEM(priv *rsa.PrivateKey, privatePath, publicPath string) error {
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return err
	}
	if err := writeFile(privatePath, &pem.Block{Type: "PRIVATE KEY", Bytes: privDER}, 0o600); err != nil {
		return err
	}
	return writeFile(publicPath, &pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}, 0o644)
}

func writeFile(path string, block *pem.Block, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, pem.EncodeToMemory(block), perm)
}
