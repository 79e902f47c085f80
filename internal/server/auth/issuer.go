// Package auth issues and verifies upload credentials.
//
// A credential bundles a JWT (the token), its expiry in unix seconds, the
// public key and a signature: hex HMAC-SHA1 of token+expire under the
// private key. The store accepts each token once.
package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
)

var (
	ErrInvalidCredential = errors.New("invalid upload credential")
	ErrCredentialExpired = errors.New("upload credential expired")
	ErrCredentialUsed    = errors.New("upload credential already used")
)

// maxTrackedTokens bounds the used-token ledger.
const maxTrackedTokens = 100_000

// Issuer mints and checks upload credentials. Safe for concurrent use.
type Issuer struct {
	publicKey  string
	privateKey []byte
	secret     []byte
	ttl        time.Duration
	now        func() time.Time

	mu   sync.Mutex
	used *expirable.LRU[string, struct{}]
}

func NewIssuer(publicKey, privateKey, tokenSecret string, ttl time.Duration) *Issuer {
	return &Issuer{
		publicKey:  publicKey,
		privateKey: []byte(privateKey),
		secret:     []byte(tokenSecret),
		ttl:        ttl,
		now:        time.Now,
		// A token past its expiry is rejected anyway, so it only needs to be
		// remembered for one lifetime plus clock slack.
		used: expirable.NewLRU[string, struct{}](maxTrackedTokens, nil, ttl+time.Minute),
	}
}

// Issue returns a fresh credential valid for the configured TTL.
func (i *Issuer) Issue() (catalog.Credential, error) {
	now := i.now()
	expire := now.Add(i.ttl).Unix()

	token, err := GenerateToken(uuid.NewString(), i.secret, now, time.Unix(expire, 0))
	if err != nil {
		return catalog.Credential{}, fmt.Errorf("sign token: %w", err)
	}

	return catalog.Credential{
		Signature: Sign(i.privateKey, token, expire),
		Expire:    expire,
		Token:     token,
		PublicKey: i.publicKey,
	}, nil
}

// Verify accepts cred at most once. The token is consumed even if the caller
// later fails to store the asset; clients authorize every attempt afresh.
func (i *Issuer) Verify(cred catalog.Credential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	if cred.PublicKey != i.publicKey {
		return fmt.Errorf("%w: unknown public key", ErrInvalidCredential)
	}

	want, err := hex.DecodeString(Sign(i.privateKey, cred.Token, cred.Expire))
	if err != nil {
		return err
	}
	got, err := hex.DecodeString(cred.Signature)
	if err != nil || !hmac.Equal(want, got) {
		return fmt.Errorf("%w: bad signature", ErrInvalidCredential)
	}

	if cred.Expired(i.now()) {
		return ErrCredentialExpired
	}

	claims, err := ParseToken(cred.Token, i.secret, i.now)
	if err != nil {
		return err
	}
	if claims.ExpiresAt.Unix() != cred.Expire {
		return fmt.Errorf("%w: expiry mismatch", ErrInvalidCredential)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.used.Contains(claims.ID) {
		return ErrCredentialUsed
	}
	i.used.Add(claims.ID, struct{}{})
	return nil
}

// Sign computes the credential signature for token and expire.
func Sign(privateKey []byte, token string, expire int64) string {
	mac := hmac.New(sha1.New, privateKey)
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
