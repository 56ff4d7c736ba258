package service

import (
	"errors"
	"fmt"
	"time"

	"icu-backend-bed-allocation/internal/models"
	"icu-backend-bed-allocation/internal/repository"
	"icu-backend-bed-allocation/pkg/utils"
)

// AuthService manages staff accounts and their token lifecycle. Every
// account event lands in the audit log, failed logins included.
type AuthService struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
}

func NewAuthService(userRepo *repository.UserRepository, auditRepo *repository.AuditRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
	}
}

// StaffAccount is the account shape returned to clients.
type StaffAccount struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// TokenPair carries a fresh access token plus the refresh token the
// handler stores in an HttpOnly cookie.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         StaffAccount `json:"user"`
}

// Login authenticates a staff account and issues a token pair.
func (s *AuthService) Login(username, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindUserByUsername(username)
	if err != nil || !utils.ComparePassword(user.PasswordHash, password) {
		s.audit(nil, "login_failed", fmt.Sprintf("Failed login attempt for %q", username))
		return nil, errors.New("invalid credentials")
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	s.audit(&user.ID, "user_login", fmt.Sprintf("Staff account %s logged in", username))
	return pair, nil
}

// Register creates a staff account. The role must be one of the known
// account roles; an empty role defaults to staff.
func (s *AuthService) Register(username, password, fullName, role string) (*TokenPair, error) {
	if role == "" {
		role = models.RoleStaff
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if existing, err := s.userRepo.FindUserByUsername(username); err == nil && existing != nil {
		return nil, errors.New("username already exists")
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	s.audit(&user.ID, "user_register", fmt.Sprintf("Staff account %s created with role %s", username, role))
	return pair, nil
}

// RefreshAccessToken exchanges a live refresh token for a new access
// token.
func (s *AuthService) RefreshAccessToken(refreshToken string) (string, error) {
	token, err := s.userRepo.FindRefreshTokenByHash(utils.HashRefreshToken(refreshToken))
	if err != nil {
		return "", errors.New("invalid or revoked refresh token")
	}
	if time.Now().After(token.ExpiresAt) {
		return "", errors.New("refresh token expired")
	}
	accessToken, err := utils.GenerateAccessToken(token.User.ID, token.User.Username, token.User.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes the refresh token so it cannot mint further access
// tokens.
func (s *AuthService) Logout(refreshToken string) error {
	if err := s.userRepo.RevokeRefreshTokenByHash(utils.HashRefreshToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	s.audit(nil, "user_logout", "Refresh token revoked")
	return nil
}

// issueTokens mints the access/refresh pair and stores the refresh
// token hash.
func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: time.Now().Add(utils.GetRefreshTokenExpiry()),
	}
	if err := s.userRepo.CreateRefreshToken(record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: StaffAccount{
			ID:       user.ID,
			Username: user.Username,
			FullName: user.FullName,
			Role:     user.Role,
		},
	}, nil
}

// audit writes an account event row; failures are ignored, auth must
// not depend on the audit table.
func (s *AuthService) audit(userID *uint, action, details string) {
	_ = s.auditRepo.CreateAuditLog(userID, action, details)
}
