package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gophercalc/internal/config"
	"gophercalc/internal/model"
	"gophercalc/internal/observability"
	"gophercalc/internal/pkg/jwtutil"
	"gophercalc/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already registered")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrInactiveAccount   = errors.New("user account is inactive")
	ErrInvalidToken      = errors.New("could not validate credentials")
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, user *model.User) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}

type AuthService struct {
	users       UserStore
	events      EventPublisher
	logger      *logrus.Logger
	metrics     *observability.Metrics
	secretKey   string
	algorithm   string
	tokenExpiry time.Duration
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	RemoteIP string
}

type LoginInput struct {
	Identifier string
	Password   string
	RemoteIP   string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(users UserStore, events EventPublisher, logger *logrus.Logger, metrics *observability.Metrics, authCfg config.AuthConfig) *AuthService {
	return &AuthService{
		users:       users,
		events:      events,
		logger:      logger,
		metrics:     metrics,
		secretKey:   authCfg.SecretKey,
		algorithm:   authCfg.Algorithm,
		tokenExpiry: authCfg.AccessTokenExpiry(),
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if username == "" || email == "" || len(input.Password) < 8 {
		s.metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidInput
	}

	existingByName, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		s.failRegister(ctx, username, "username taken", input.RemoteIP)
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		s.failRegister(ctx, email, "email taken", input.RemoteIP)
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Lost the race to a concurrent insert between the checks
			// above and the write. The unique index is the arbiter;
			// re-read to report the column that actually collided.
			if existing, lookupErr := s.users.GetByUsername(ctx, username); lookupErr == nil && existing != nil {
				s.failRegister(ctx, username, "username taken", input.RemoteIP)
				return nil, ErrUsernameExists
			}
			s.failRegister(ctx, email, "email taken", input.RemoteIP)
			return nil, ErrEmailExists
		}
		return nil, err
	}

	token, err := jwtutil.GenerateToken(s.secretKey, s.algorithm, s.tokenExpiry, user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token failed: %w", err)
	}

	s.metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.recordAuth(ctx, model.AuthActionRegister, model.AuthStatusSuccess, user.ID, username, "", input.RemoteIP)
	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user registered")

	return &AuthResult{Token: token, User: user}, nil
}

// Login accepts either a username or an email address as identifier.
// Unknown identifier and wrong password collapse into the same error
// so responses stay indistinguishable.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		s.failLogin(ctx, 0, identifier, "empty credential", input.RemoteIP)
		return nil, ErrInvalidCredential
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.failLogin(ctx, 0, identifier, "unknown identifier", input.RemoteIP)
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.failLogin(ctx, user.ID, identifier, "wrong password", input.RemoteIP)
		return nil, ErrInvalidCredential
	}

	if !user.IsActive {
		s.failLogin(ctx, user.ID, identifier, "inactive account", input.RemoteIP)
		return nil, ErrInactiveAccount
	}

	token, err := jwtutil.GenerateToken(s.secretKey, s.algorithm, s.tokenExpiry, user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token failed: %w", err)
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.recordAuth(ctx, model.AuthActionLogin, model.AuthStatusSuccess, user.ID, identifier, "", input.RemoteIP)
	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user logged in")

	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate verifies a bearer token and loads the user it names.
// The user record is read on every call so deletions take effect
// immediately; nothing about token validity is cached.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := jwtutil.ParseToken(s.secretKey, s.algorithm, tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) failRegister(ctx context.Context, identifier, reason, remoteIP string) {
	s.metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
	s.recordAuth(ctx, model.AuthActionRegister, model.AuthStatusFailure, 0, identifier, reason, remoteIP)
}

func (s *AuthService) failLogin(ctx context.Context, userID uint, identifier, reason, remoteIP string) {
	s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
	s.recordAuth(ctx, model.AuthActionLogin, model.AuthStatusFailure, userID, identifier, reason, remoteIP)
}

// recordAuth hands the event to the broker. A broker outage must not
// turn into an auth failure, so publish errors only log.
func (s *AuthService) recordAuth(ctx context.Context, action, status string, userID uint, identifier, reason, remoteIP string) {
	event := model.AuthEvent{
		EventID:    uuid.NewString(),
		Action:     action,
		Status:     status,
		UserID:     userID,
		Identifier: identifier,
		Reason:     reason,
		RemoteIP:   remoteIP,
		CreatedAt:  time.Now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action": action,
			"status": status,
		}).Warn("publish auth event failed")
	}
}
