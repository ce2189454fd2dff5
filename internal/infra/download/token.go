// Package download builds and verifies signed download links for generated
// documents. A link embeds an expiring HS256 token bound to the storage key,
// so leaked URLs stop working after the TTL.
package download

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edupay/internal/config"
	"edupay/internal/domain/ports/adapter"
)

var ErrInvalidToken = errors.New("invalid download token")

var _ adapter.DownloadLinker = (*Linker)(nil)

type Linker struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
}

func NewLinker(baseURL string, cfg config.StorageConfig) *Linker {
	return &Linker{
		baseURL: baseURL,
		secret:  []byte(cfg.TokenSecret),
		ttl:     cfg.DownloadTTL,
	}
}

type fileClaims struct {
	File string `json:"file"`
	jwt.RegisteredClaims
}

// Link returns the public download URL for the storage key.
func (l *Linker) Link(fileName string) (string, error) {
	tok, err := l.Mint(fileName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/pay/download/%s?token=%s", l.baseURL, url.PathEscape(fileName), tok), nil
}

// Mint signs a token for one storage key.
func (l *Linker) Mint(fileName string) (string, error) {
	now := time.Now()
	claims := fileClaims{
		File: fileName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(l.secret)
}

// Verify checks the token and returns the storage key it was minted for.
func (l *Linker) Verify(tokenStr string) (string, error) {
	claims := &fileClaims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return l.secret, nil
	})
	if err != nil || !tok.Valid || claims.File == "" {
		return "", ErrInvalidToken
	}
	return claims.File, nil
}
