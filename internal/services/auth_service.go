package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"productapi/internal/models"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredential is returned for a credential that is neither a valid
// token nor the static admin key.
var ErrInvalidCredential = errors.New("invalid credential")

// AuthConfig configures AuthService.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	Issuer       string
	AdminKeyHash string
}

// AuthService turns bearer credentials into principals.
type AuthService struct {
	jwtSecret    []byte
	tokenDurat   time.Duration // Duration for which JWT is valid
	issuer       string
	adminKeyHash []byte
	compareKey   func(hash, key []byte) error
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &AuthService{
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenDurat: ttl,
		issuer:     cfg.Issuer,
		compareKey: bcrypt.CompareHashAndPassword,
	}
	if cfg.AdminKeyHash != "" {
		s.adminKeyHash = []byte(cfg.AdminKeyHash)
	}
	return s
}

// IssueToken signs a token for p.
func (s *AuthService) IssueToken(p models.Principal) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	if p.ID == "" {
		return "", fmt.Errorf("principal id is required")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  p.ID,
		"role": p.Role,
		"name": p.Name,
		"iss":  s.issuer,
		"exp":  now.Add(s.tokenDurat).Unix(),
		"iat":  now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	if len(s.jwtSecret) == 0 {
		return nil, fmt.Errorf("jwt secret is not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return nil, fmt.Errorf("invalid token issuer")
	}
	return claims, nil
}

// Authenticate resolves an Authorization header value. An empty credential
// yields no principal and no error.
func (s *AuthService) Authenticate(credential string) (*models.Principal, error) {
	credential = strings.TrimSpace(credential)
	if fields := strings.Fields(credential); len(fields) > 0 && strings.EqualFold(fields[0], "Bearer") {
		credential = strings.TrimSpace(credential[len(fields[0]):])
	}
	if credential == "" {
		return nil, nil
	}

	if len(s.jwtSecret) > 0 {
		if claims, err := s.ValidateToken(credential); err == nil {
			return principalFromClaims(claims)
		}
	}
	// A well-formed JWT that failed validation is never the admin key, so
	// skip the bcrypt comparison.
	if looksLikeJWT(credential) {
		return nil, ErrInvalidCredential
	}
	if s.adminKeyHash != nil && s.compareKey(s.adminKeyHash, []byte(credential)) == nil {
		return &models.Principal{ID: "admin", Role: models.RoleAdmin, Name: "Super Admin"}, nil
	}
	return nil, ErrInvalidCredential
}

// HashAdminKey returns the bcrypt hash to store in ADMIN_API_KEY_HASH.
func HashAdminKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("admin key cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin key: %w", err)
	}
	return string(hashed), nil
}

func looksLikeJWT(credential string) bool {
	if strings.Count(credential, ".") != 2 {
		return false
	}
	_, _, err := new(jwt.Parser).ParseUnverified(credential, jwt.MapClaims{})
	return err == nil
}

func principalFromClaims(claims jwt.MapClaims) (*models.Principal, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidCredential
	}
	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)
	if role == "" {
		role = models.RoleUser
	}
	return &models.Principal{ID: sub, Role: strings.ToUpper(role), Name: name}, nil
}
