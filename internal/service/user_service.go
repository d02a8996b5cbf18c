package service

import (
	"net/mail"
	"strings"
	"time"

	"github.com/educycle/marketplace/internal/config"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserJWTClaims is the token payload for authenticated users.
type UserJWTClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// UserService handles accounts and authentication.
type UserService struct {
	cfg      config.JWTConfig
	userRepo repository.UserRepository
}

// NewUserService creates the account service.
func NewUserService(cfg config.JWTConfig, userRepo repository.UserRepository) *UserService {
	return &UserService{cfg: cfg, userRepo: userRepo}
}

// Register creates an account. Username and email are unique.
func (s *UserService) Register(input RegisterInput) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || len(input.Password) < 6 {
		return nil, ErrInvalidCredentials
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if existing, err := s.userRepo.GetByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUserExists
	}
	if existing, err := s.userRepo.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and issues a token.
func (s *UserService) Login(username, password string) (*models.User, string, time.Time, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		// also accept the email as the login name
		user, err = s.userRepo.GetByEmail(username)
		if err != nil {
			return nil, "", time.Time{}, err
		}
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	user.LastLoginAt = &now

	token, expiresAt, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// GenerateJWT signs a token for a user.
func (s *UserService) GenerateJWT(user *models.User) (string, time.Time, error) {
	hours := s.cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	expiresAt := time.Now().Add(time.Duration(hours) * time.Hour)
	claims := UserJWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT validates a token and returns its claims.
func (s *UserService) ParseJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidCredentials
}

// Get fetches an account.
func (s *UserService) Get(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
