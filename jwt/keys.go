package jwt

import (
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// MinKeySize is the minimum HS512 key length in bytes.
const MinKeySize = 64

const (
	accessKeyInfo  = "goToken/hs512/access/v1"
	refreshKeyInfo = "goToken/hs512/refresh/v1"
)

// Keys holds the per-kind signing keys derived from one configured secret.
type Keys struct {
	Access  []byte
	Refresh []byte
}

// DecodeSecret decodes a base64 (standard or URL alphabet, padded or not)
// signing secret and enforces [MinKeySize].
func DecodeSecret(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("empty signing secret")
	}

	var (
		raw []byte
		err error
	)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		raw, err = enc.DecodeString(encoded)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("signing secret is not base64: %w", err)
	}
	if len(raw) < MinKeySize {
		return nil, fmt.Errorf("signing secret must decode to at least %d bytes, got %d", MinKeySize, len(raw))
	}
	return raw, nil
}

// DeriveKeys expands secret into independent access and refresh keys with
// HKDF-SHA512, so a credential of one kind never verifies as the other.
func DeriveKeys(secret []byte) (Keys, error) {
	if len(secret) < MinKeySize {
		return Keys{}, fmt.Errorf("signing secret must be at least %d bytes", MinKeySize)
	}

	access, err := expand(secret, accessKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	refresh, err := expand(secret, refreshKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	return Keys{Access: access, Refresh: refresh}, nil
}

func expand(secret []byte, info string) ([]byte, error) {
	out := make([]byte, MinKeySize)
	r := hkdf.New(sha512.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return out, nil
}
