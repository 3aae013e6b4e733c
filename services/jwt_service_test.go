package services

import (
	"testing"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJWTRoundTrip(t *testing.T) {
	s := NewJWTService("secret", 0)
	assert.Equal(t, 24*time.Hour, s.TTL())

	id := primitive.NewObjectID()
	token, expires, err := s.GenerateToken(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expires, time.Minute)

	got, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestJWTRejectsExpiredAndForeign(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewJWTService("secret", time.Hour)
	s.now = func() time.Time { return now }
	token, _, err := s.GenerateToken(primitive.NewObjectID())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = s.ParseToken(token)
	assert.Equal(t, models.KindAuth, models.KindOf(err))
	assert.Contains(t, models.PublicMessage(err), "expired")

	other := NewJWTService("other-secret", time.Hour)
	other.now = s.now
	foreign, _, err := other.GenerateToken(primitive.NewObjectID())
	require.NoError(t, err)
	_, err = s.ParseToken(foreign)
	assert.Equal(t, models.KindAuth, models.KindOf(err))
}

func TestJWTRejectsOtherAlgorithms(t *testing.T) {
	s := NewJWTService("secret", time.Hour)
	claims := &Claims{
		UserID:           primitive.NewObjectID().Hex(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = s.ParseToken(token)
	assert.Equal(t, models.KindAuth, models.KindOf(err))
}
