package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const invalidCredentials = "Invalid email or password"

type RegisterInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ProfileImageURL  string `json:"profileImageUrl"`
	AdminInviteToken string `json:"adminInviteToken"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the user payload returned by register, login and profile update.
type AuthResult struct {
	ID              primitive.ObjectID `json:"_id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Role            string             `json:"role"`
	ProfileImageURL string             `json:"profileImageUrl"`
	Token           string             `json:"token"`
}

type AuthService struct {
	users       repositories.UserRepository
	tokens      *JWTService
	inviteToken string
	now         func() time.Time
}

// NewAuthService builds the service. An empty inviteToken disables admin sign-up.
func NewAuthService(users repositories.UserRepository, tokens *JWTService, inviteToken string) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		inviteToken: inviteToken,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, badRequest("name, email and password are required")
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, badRequest("User already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, serverError(err)
	}

	role := models.RoleMember
	if s.inviteToken != "" && in.AdminInviteToken == s.inviteToken {
		role = models.RoleAdmin
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, serverError(err)
	}

	now := s.now()
	user := &models.User{
		ID:              primitive.NewObjectID(),
		Name:            in.Name,
		Email:           in.Email,
		Password:        hashed,
		ProfileImageURL: in.ProfileImageURL,
		Role:            role,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, badRequest("User already exists")
		}
		return nil, serverError(err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role %s", user.ID.Hex(), user.Role)
	return s.result(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logging.Logger.Warnf("Event ID: LOGIN_UNKNOWN_EMAIL, Description: Login attempt for unknown email")
			return nil, unauthorized(invalidCredentials)
		}
		return nil, serverError(err)
	}
	if !checkPassword(user.Password, in.Password) {
		logging.Logger.Warnf("Event ID: LOGIN_BAD_PASSWORD, Description: Wrong password for user %s", user.ID.Hex())
		return nil, unauthorized(invalidCredentials)
	}

	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", user.ID.Hex())
	return s.result(user)
}

// Profile reloads the caller so deleted accounts are reported as unauthorized.
func (s *AuthService) Profile(ctx context.Context, callerID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, unauthorized("User not found")
		}
		return nil, serverError(err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, callerID primitive.ObjectID, in ProfileUpdate) (*AuthResult, error) {
	user, err := s.Profile(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if email := normalizeEmail(in.Email); email != "" && email != user.Email {
		existing, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, badRequest("User already exists")
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return nil, serverError(err)
		}
		user.Email = email
	}
	if in.Password != "" {
		hashed, err := hashPassword(in.Password)
		if err != nil {
			return nil, serverError(err)
		}
		user.Password = hashed
	}
	user.UpdatedAt = s.now()

	if err := s.users.Replace(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, badRequest("User already exists")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, unauthorized("User not found")
		}
		return nil, serverError(err)
	}

	logging.Logger.Infof("Event ID: PROFILE_UPDATED, Description: User %s updated their profile", user.ID.Hex())
	return s.result(user)
}

func (s *AuthService) result(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateAuthToken(user.ID.Hex())
	if err != nil {
		return nil, serverError(err)
	}
	return &AuthResult{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		ProfileImageURL: user.ProfileImageURL,
		Token:           token,
	}, nil
}
