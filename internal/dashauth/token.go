// ABOUTME: JWT bridge between the bot and the web dashboard's session auth.
// ABOUTME: HS256 tokens scoped to a user and guild, with configurable secret.

package dashauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// minSecretLen guards against trivially brute-forceable HS256 secrets.
const minSecretLen = 32

// Session identifies who a dashboard token was minted for.
type Session struct {
	UserID  string
	GuildID string
}

// Bridge mints and verifies dashboard session tokens using HS256.
type Bridge struct {
	secret []byte
}

// NewBridge creates a Bridge with the given secret.
func NewBridge(secret []byte) (*Bridge, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("secret must be at least %d bytes, got %d", minSecretLen, len(secret))
	}
	return &Bridge{secret: secret}, nil
}

// Mint creates a signed dashboard token for the given user and guild.
func (b *Bridge) Mint(userID, guildID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"guild": guildID,
		"jti":   uuid.New().String(),
		"iat":   now.Unix(),
		"exp":   now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(b.secret)
}

// Verify validates a dashboard token and extracts the session it grants.
func (b *Bridge) Verify(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	guild, ok := claims["guild"].(string)
	if !ok || guild == "" {
		return nil, fmt.Errorf("%w: guild", ErrMissingClaim)
	}

	return &Session{UserID: sub, GuildID: guild}, nil
}
