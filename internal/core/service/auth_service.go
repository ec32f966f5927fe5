package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// AuthConfig carries the token and password settings.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	HashPasswords bool
}

// AuthService implements login and user administration.
type AuthService struct {
	store     ports.Store
	audit     *AuditService
	validate  *validator.Validate
	passwords passwords
	jwtSecret string
	tokenTTL  time.Duration
	notify    Notify
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService builds the user service. notify hears about owner renames
// that rewrite the record and settings collections; it may be nil.
func NewAuthService(store ports.Store, audit *AuditService, cfg AuthConfig, notify Notify, logger zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		audit:     audit,
		validate:  validator.New(),
		passwords: passwords{hash: cfg.HashPasswords},
		jwtSecret: cfg.JWTSecret,
		tokenTTL:  cfg.TokenTTL,
		notify:    notify,
		logger:    logger,
		now:       time.Now,
	}
}

// Initialize makes sure the master admin exists and carries its canonical
// name and email.
func (s *AuthService) Initialize(ctx context.Context) error {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	def := domain.DefaultAdmin()

	for _, u := range users {
		if u.Username != domain.MasterUsername {
			continue
		}
		if u.Name == def.Name && u.Email == def.Email {
			return nil
		}
		s.logger.Info().Msg("restoring master admin profile")
		return s.store.SyncUserProfile(ctx, def.Username, def.Name, def.Email)
	}

	if def.Password, err = s.passwords.encode(def.Password); err != nil {
		return err
	}
	if err := s.store.InsertUser(ctx, def); err != nil && !errors.Is(err, domain.ErrUserExists) {
		return fmt.Errorf("create master admin: %w", err)
	}
	s.logger.Info().Str("username", def.Username).Msg("created master admin")
	return nil
}

// Login matches identifier against username or email ignoring case. On
// success it writes a LOGIN entry and registers the user's name as an owner.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*ports.LoginResult, error) {
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	for i := range users {
		if users[i].Matches(identifier) && s.passwords.match(users[i].Password, password) {
			user = &users[i]
			break
		}
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	s.audit.record(ctx, user.Actor(), domain.ActionLogin, "Logged in")
	if user.Name != "" {
		if err := s.store.AddOwner(ctx, user.Name); err != nil {
			s.logger.Warn().Err(err).Str("owner", user.Name).Msg("failed to register owner on login")
		}
	}

	token, exp, err := s.generateToken(*user)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: token, ExpiresAt: exp, User: user.Public()}, nil
}

func (s *AuthService) generateToken(user domain.User) (string, time.Time, error) {
	exp := s.now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"username": user.Username,
		"email":    user.Email,
		"name":     user.Name,
		"role":     user.Role,
		"jti":      uuid.NewString(),
		"exp":      exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	return signed, exp, err
}

// ListUsers returns every user without passwords.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

func (s *AuthService) validUser(u domain.User) error {
	if err := s.validate.Struct(u); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidUser, err)
	}
	return nil
}

func (s *AuthService) CreateUser(ctx context.Context, u domain.User, actor domain.Actor) error {
	u.Username = strings.TrimSpace(u.Username)
	if err := s.validUser(u); err != nil {
		return err
	}
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Username, u.Username) {
			return domain.ErrUserExists
		}
	}

	if u.Password, err = s.passwords.encode(u.Password); err != nil {
		return err
	}
	if err := s.store.InsertUser(ctx, u); err != nil {
		return err
	}
	s.audit.record(ctx, actor, domain.ActionAdmin, "Created user "+u.Username)
	return nil
}

// UpdateUser replaces the user stored under originalUsername. A blank
// password keeps the current one. A display-name change is propagated to
// every record owned under the old name.
func (s *AuthService) UpdateUser(ctx context.Context, originalUsername string, u domain.User, actor domain.Actor) error {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return err
	}
	var old *domain.User
	for i := range users {
		if users[i].Username == originalUsername {
			old = &users[i]
			break
		}
	}
	if old == nil {
		return domain.ErrUserNotFound
	}
	if originalUsername == domain.MasterUsername && u.Username != originalUsername {
		return domain.ErrMasterAdmin
	}
	for _, other := range users {
		if other.Username != originalUsername && strings.EqualFold(other.Username, u.Username) {
			return domain.ErrUserExists
		}
	}

	if u.Password == "" {
		u.Password = old.Password
	} else if u.Password != old.Password {
		if u.Password, err = s.passwords.encode(u.Password); err != nil {
			return err
		}
	}
	if err := s.validUser(u); err != nil {
		return err
	}
	if err := s.store.ReplaceUser(ctx, originalUsername, u); err != nil {
		return err
	}

	if old.Name != u.Name {
		if err := s.store.UpdateOwnerNameGlobally(ctx, old.Name, u.Name); err != nil {
			s.logger.Warn().Err(err).Str("from", old.Name).Str("to", u.Name).Msg("owner rename incomplete")
		}
		s.notify.send(ports.CollectionRecords)
		s.notify.send(ports.CollectionSettings)
	}
	s.audit.record(ctx, actor, domain.ActionAdmin, "Updated user "+originalUsername)
	return nil
}

func (s *AuthService) DeleteUser(ctx context.Context, username string, actor domain.Actor) error {
	if username == domain.MasterUsername {
		return domain.ErrMasterAdmin
	}
	if err := s.store.DeleteUser(ctx, username); err != nil {
		return err
	}
	s.audit.record(ctx, actor, domain.ActionAdmin, "Deleted user "+username)
	return nil
}

// ChangePassword sets a new password. Non-admin actors may only change
// their own.
func (s *AuthService) ChangePassword(ctx context.Context, username, newPassword string, actor domain.Actor) error {
	if !actor.IsAdmin() && actor.Username != username {
		return domain.ErrForbidden
	}
	if newPassword == "" {
		return fmt.Errorf("%w: empty password", domain.ErrInvalidUser)
	}
	encoded, err := s.passwords.encode(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.SetUserPassword(ctx, username, encoded); err != nil {
		return err
	}
	s.audit.record(ctx, actor, domain.ActionDataUpdate, "Changed password for "+username)
	return nil
}
