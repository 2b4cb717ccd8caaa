package agiletest

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errStaleToken = errors.New("token from an older generation")

// claims ties a token to the server generation it was issued in. Bumping the
// generation expires every outstanding token at once.
type claims struct {
	jwt.RegisteredClaims
	Generation int `json:"gen"`
}

func issueToken(user string, generation int, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user,
			ID:      uuid.NewString(),
		},
		Generation: generation,
	})
	return token.SignedString(secret)
}

func parseToken(raw string, generation int, secret []byte) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if c.Generation != generation {
		return nil, errStaleToken
	}
	return c, nil
}
