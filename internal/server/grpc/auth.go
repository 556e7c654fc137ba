package grpcserver

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Role is the token subject.
type Role string

const (
	RoleInstitution Role = "institution"
	RoleStudent     Role = "student"
)

// ParseRole validates s as a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleInstitution, RoleStudent:
		return r, nil
	}
	return "", errors.New("role must be institution or student")
}

// DefaultPolicy lists the roles each method accepts. Methods not listed accept any valid token.
var DefaultPolicy = map[string][]Role{
	FullMethod(MethodConnect):             {RoleInstitution, RoleStudent},
	FullMethod(MethodDisconnect):          {RoleInstitution, RoleStudent},
	FullMethod(MethodMintCertificate):     {RoleInstitution},
	FullMethod(MethodCreateCampaign):      {RoleInstitution},
	FullMethod(MethodTransferCertificate): {RoleInstitution, RoleStudent},
}

// IssueToken signs an HS256 token with subject role.
func IssueToken(key []byte, role Role, ttl time.Duration) (string, time.Time, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return "", time.Time{}, err
	}
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		ID:        jti.String(),
		Subject:   string(role),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	return signed, exp, err
}

// roleFromToken verifies tok and returns its role.
func roleFromToken(key []byte, tok string) (Role, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	return ParseRole(claims.Subject)
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			if t := strings.TrimSpace(v[7:]); t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}

// AuthUnary checks the bearer token on Gateway methods and stores the role in
// the context. Other services (health, reflection) pass through.
func AuthUnary(key []byte, policy map[string][]Role) grpc.UnaryServerInterceptor {
	prefix := "/" + ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return next(ctx, req)
		}
		tok, err := bearerTokenFromMD(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "no auth")
		}
		role, err := roleFromToken(key, tok)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		if allowed, ok := policy[info.FullMethod]; ok && !slices.Contains(allowed, role) {
			return nil, status.Errorf(codes.PermissionDenied, "role %s may not call %s", role, info.FullMethod)
		}
		return next(WithRole(ctx, role), req)
	}
}

type ctxKey string

const roleKey ctxKey = "educert.role"

// WithRole stores the authenticated role in ctx.
func WithRole(ctx context.Context, r Role) context.Context {
	return context.WithValue(ctx, roleKey, r)
}

// RoleFromCtx fetches the role stored by AuthUnary.
func RoleFromCtx(ctx context.Context) (Role, bool) {
	r, ok := ctx.Value(roleKey).(Role)
	return r, ok
}
