package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kms/internal/domain"
)

// Claims carries the actor in a bearer token. The subject is the user id.
type Claims struct {
	Role      string `json:"role"`
	CanteenID string `json:"canteenId,omitempty"`
	jwt.RegisteredClaims
}

type actorKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated actor stored by the middleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// IssueToken signs an HS256 token for actor, valid for ttl from now.
func IssueToken(secret string, actor domain.Actor, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	claims := Claims{
		Role:      string(actor.Role),
		CanteenID: actor.CanteenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseBearer extracts the token from an Authorization header value and validates it.
func ParseBearer(header, secret string) (domain.Actor, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return domain.Actor{}, errors.New("invalid authorization header")
	}
	return ParseToken(strings.TrimSpace(parts[1]), secret)
}

func ParseToken(tokenStr, secret string) (domain.Actor, error) {
	if secret == "" {
		return domain.Actor{}, errors.New("jwt secret is empty")
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Actor{}, err
	}

	c, ok := tok.Claims.(*Claims)
	if !ok || c.Subject == "" {
		return domain.Actor{}, errors.New("invalid claims")
	}
	role, ok := domain.ParseRole(c.Role)
	if !ok {
		return domain.Actor{}, fmt.Errorf("unknown role %q", c.Role)
	}
	if role == domain.RoleCanteen && c.CanteenID == "" {
		return domain.Actor{}, errors.New("canteen token without canteenId")
	}

	return domain.Actor{ID: c.Subject, Role: role, CanteenID: c.CanteenID}, nil
}
