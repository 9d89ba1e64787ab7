package middleware

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Attempt cookies bind a candidate's browser to their attempt session so a
// raw link visit resumes the right attempt. One cookie per link, signed so
// a candidate cannot point it at someone else's attempt.

func AttemptCookieName(masterToken uuid.UUID) string {
	return "interview_attempt_" + masterToken.String()
}

// SignAttemptCookie issues the signed cookie value for an attempt session.
// The master token is part of the claims so a cookie issued under one link
// cannot be replayed under another by renaming it.
func SignAttemptCookie(attemptID, masterToken uuid.UUID, secret string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": attemptID.String(),
		"lnk": masterToken.String(),
		"exp": expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAttemptCookie verifies a cookie value against the link it was
// presented under and returns the attempt session ID it was issued for.
func ParseAttemptCookie(value string, masterToken uuid.UUID, secret string) (uuid.UUID, error) {
	claims, err := parseToken(value, secret)
	if err != nil {
		return uuid.Nil, err
	}

	lnk, ok := claims["lnk"].(string)
	if !ok || lnk != masterToken.String() {
		return uuid.Nil, ErrInvalidToken
	}
	sid, ok := claims["sid"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	return uuid.Parse(sid)
}
