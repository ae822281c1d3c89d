package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kmazur/inkroom/models"
)

const sessionTTL = 24 * time.Hour

// CreateSession mints an anonymous drawing identity. There is no account
// system: the signed token is the only thing tying a reconnecting client
// back to its userId.
func (s *Service) CreateSession(ctx context.Context, name string) (models.User, string, error) {
	userUUID, err := uuid.NewV7()
	if err != nil {
		return models.User{}, "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "guest-" + userUUID.String()[:8]
	}
	if len(name) > 32 {
		return models.User{}, "", errors.New("name too long")
	}

	user := models.User{
		Id:      userUUID.String(),
		Name:    name,
		Created: time.Now().Unix(),
	}

	token, err := s.CreateJWT(user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("token generation failed: %w", err)
	}

	return user, token, nil
}

func (s *Service) CreateJWT(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":   user.Id,
		"name": user.Name,
		"exp":  time.Now().Add(sessionTTL).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

func (s *Service) VerifyJWT(tokenString string) (models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.User{}, err
	}

	if !token.Valid {
		return models.User{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.User{}, errors.New("invalid token claims")
	}

	id, ok := claims["id"].(string)
	if !ok {
		return models.User{}, errors.New("missing id claim")
	}

	name, ok := claims["name"].(string)
	if !ok {
		return models.User{}, errors.New("missing name claim")
	}

	iatFloat, ok := claims["iat"].(float64)
	if !ok {
		return models.User{}, errors.New("missing iat claim")
	}

	return models.User{Id: id, Name: name, Created: int64(iatFloat)}, nil
}

func (s *Service) AuthenticateToken(ctx context.Context, token string) (models.User, error) {
	if len(token) == 0 {
		return models.User{}, errors.New("token not provided")
	}

	return s.VerifyJWT(token)
}
