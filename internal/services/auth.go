package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kysclient/foodly-backend/internal/pkg/logger"
	"github.com/kysclient/foodly-backend/internal/pkg/requestdata"
)

// AuthService covers the slice of authentication this service needs itself:
// minting and verifying the bearer tokens that gate the HTTP surface and the
// realtime handshake. Account management lives elsewhere.
type AuthService interface {
	MintAccessToken(userID uuid.UUID) (string, error)
	VerifyAccessToken(tokenString string) (uuid.UUID, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) MintAccessToken(userID uuid.UUID) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	userID, _, err := as.parseToken(tokenString)
	return userID, err
}

// SetContextFromToken verifies the token and attaches request identity to the
// context. The session id comes from the token's jti claim, so every request
// made with the same token resolves to the same session; the realtime
// subscribe endpoints depend on that to find the session's live stream.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	userID, sessionID, err := as.parseToken(tokenString)
	if err != nil {
		return ctx, err
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		SessionID:   sessionID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) parseToken(tokenString string) (uuid.UUID, uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, uuid.Nil, fmt.Errorf("empty token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid session id in token: %w", err)
	}
	return userID, sessionID, nil
}
