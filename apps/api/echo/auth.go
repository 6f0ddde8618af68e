package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/core/identity"
)

const (
	bearerScheme    = "Bearer "
	contextTokenKey = "actorToken"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsStudent    bool     `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher    bool     `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin      bool     `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
	Roles        []string `json:"roles,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

// GetActorClaims returns the claims of a token issued to actor, valid for ttl.
func GetActorClaims(issuer string, actor identity.Actor, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(actor.ID, 10),
			Audience:  "Academia",
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Unix(),
		Username:     actor.Username,
		Email:        actor.Email,
		IsStudent:    actor.IsStudent(),
		IsTeacher:    actor.IsTeacher(),
		IsAdmin:      actor.IsAdmin(),
		Roles:        actor.Roles,
		Permissions:  actor.Permissions,
	}
}

// Actor returns the acting user the claims were issued to.
func (c Claims) Actor() (identity.Actor, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return identity.Anonymous, errors.Errorf("invalid subject %q", c.Subject)
	}
	return identity.Actor{
		ID:          id,
		Username:    c.Username,
		Email:       c.Email,
		Roles:       c.Roles,
		Permissions: c.Permissions,
	}, nil
}

// GenerateToken generates a signed (HS256) JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// jwtMiddleware authenticates the request with its bearer token and puts the acting user in
// the request context.
func jwtMiddleware(secretKey []byte) echo.MiddlewareFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.Errorf("unexpected jwt signing method %s", token.Method.Alg())
		}
		return secretKey, nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, bearerScheme) || len(auth) == len(bearerScheme) {
				return errMissingToken
			}

			claims := new(Claims)
			token, err := jwt.ParseWithClaims(auth[len(bearerScheme):], claims, keyFunc)
			if err != nil || !token.Valid {
				return invalidToken(err)
			}
			actor, err := claims.Actor()
			if err != nil {
				return invalidToken(err)
			}

			ctx.Set(contextTokenKey, token)
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(identity.WithActor(req.Context(), actor)))
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextActor(ctx echo.Context) identity.Actor {
	if actor, ok := identity.ActorFrom(ctx.Request().Context()); ok {
		return actor
	}
	return identity.Anonymous
}

func invalidToken(err error) error {
	return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "invalid or expired jwt", Internal: err}
}
