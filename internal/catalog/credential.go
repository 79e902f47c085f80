package catalog

import (
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// AssetMediaType is the only media type the asset store accepts.
const AssetMediaType = "image/webp"

var ErrMalformedCredential = errors.New("malformed upload credential")

// Credential is a single-use, time-limited grant for one asset upload.
// Expire is a unix timestamp in seconds.
type Credential struct {
	Signature string `json:"signature"`
	Expire    int64  `json:"expire"`
	Token     string `json:"token"`
	PublicKey string `json:"publicKey"`
}

// Validate requires every field to be present.
func (c Credential) Validate() error {
	var missing []string
	if c.Signature == "" {
		missing = append(missing, "signature")
	}
	if c.Expire <= 0 {
		missing = append(missing, "expire")
	}
	if c.Token == "" {
		missing = append(missing, "token")
	}
	if c.PublicKey == "" {
		missing = append(missing, "publicKey")
	}
	if len(missing) > 0 {
		return errors.Join(ErrMalformedCredential, errors.New("missing "+strings.Join(missing, ", ")))
	}
	return nil
}

func (c Credential) ExpiresAt() time.Time {
	return time.Unix(c.Expire, 0)
}

// Expired reports whether the grant is no longer usable at now.
func (c Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt())
}

// Checksum is the hex BLAKE2b-256 digest the client sends with each asset and
// the asset store verifies on receipt.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
