// Package jwt реализует генерацию и парсинг JWT-токенов с кастомными
// claim-полями кредитора.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	LenderUID            string `json:"lender_uid"` // идентификатор счёта кредитора
	Role                 string `json:"role"`       // роль пользователя
	jwt.RegisteredClaims        // стандартные claims (ExpiresAt, IssuedAt и пр.)
}

// Maker описывает интерфейс для генерации и парсинга токенов.
type Maker interface {
	GenerateToken(lenderUID, role string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на секретном ключе HS256.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewMaker создаёт новый экземпляр MakerImpl.
func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{secretKey: secretKey, tokenTTL: ttl}
}

// GenerateToken создаёт токен с lenderUID и ролью.
func (j *MakerImpl) GenerateToken(lenderUID, role string) (string, error) {
	claims := CustomClaims{
		LenderUID: lenderUID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
