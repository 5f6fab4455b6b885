package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// ResourcePrefix marks a key value that names a file under the resource directory.
const ResourcePrefix = "resource:"

var (
	pemArmor   = regexp.MustCompile(`-----(BEGIN|END) [A-Z ]+-----`)
	whitespace = regexp.MustCompile(`\s+`)
)

// LoadKeyPair resolves the configured RSA key pair. Each key is loaded on its
// own, so one may be inline while the other comes from a resource file.
func LoadKeyPair(cfg JWTConfig) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	return LoadKeyPairFS(os.DirFS(cfg.ResourceDir), cfg)
}

// LoadKeyPairFS is LoadKeyPair with resources read from fsys.
func LoadKeyPairFS(fsys fs.FS, cfg JWTConfig) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	pubDER, err := keyMaterial(fsys, cfg.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("public key: %w", err)
	}
	pub, err := parsePublicKey(pubDER)
	if err != nil {
		return nil, nil, fmt.Errorf("public key: %w", err)
	}

	privDER, err := keyMaterial(fsys, cfg.PrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("private key: %w", err)
	}
	priv, err := parsePrivateKey(privDER)
	if err != nil {
		return nil, nil, fmt.Errorf("private key: %w", err)
	}

	if priv.PublicKey.N.Cmp(pub.N) != 0 || priv.PublicKey.E != pub.E {
		return nil, nil, fmt.Errorf("private key does not match public key")
	}
	return priv, pub, nil
}

// keyMaterial returns the DER bytes for value. Resource files have their PEM
// header, footer and whitespace removed before base64 decoding.
func keyMaterial(fsys fs.FS, value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("not configured")
	}

	encoded := value
	if name, ok := strings.CutPrefix(value, ResourcePrefix); ok {
		raw, err := fs.ReadFile(fsys, strings.TrimPrefix(name, "/"))
		if err != nil {
			return nil, fmt.Errorf("read resource %q: %w", name, err)
		}
		encoded = pemArmor.ReplaceAllString(string(raw), "")
	}
	encoded = whitespace.ReplaceAllString(encoded, "")

	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return der, nil
}

func parsePublicKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse X.509: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected RSA key, got %T", key)
	}
	return rsaKey, nil
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse PKCS#8: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected RSA key, got %T", key)
	}
	return rsaKey, nil
}
