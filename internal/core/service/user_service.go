package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agendavendas/scheduling-api/internal/pkg/metrics"
	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

// UserService implements email login and account management.
type UserService struct {
	repo     ports.UserRepository
	notifier ports.Notifier
	masters  map[string]struct{}
	log      zerolog.Logger
}

// NewUserService returns a UserService. Logging in with any of the master
// emails always yields an active admin account.
func NewUserService(repo ports.UserRepository, notifier ports.Notifier, masterEmails []string, log zerolog.Logger) *UserService {
	masters := make(map[string]struct{}, len(masterEmails))
	for _, e := range masterEmails {
		if e = domain.NormalizeEmail(e); e != "" {
			masters[e] = struct{}{}
		}
	}
	return &UserService{repo: repo, notifier: notifier, masters: masters, log: log}
}

// Bootstrap makes sure every master account exists. A disabled master that
// is still an admin is reactivated; a demoted one is left alone until it
// logs in, which promotes it. Idempotent; meant to run once at startup.
func (s *UserService) Bootstrap(ctx context.Context) error {
	for email := range s.masters {
		user, err := s.repo.FindByEmail(ctx, email)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			if _, err := s.repo.Create(ctx, masterUser(email)); err != nil && !errors.Is(err, domain.ErrDuplicateKey) {
				return fmt.Errorf("bootstrap %s: %w", email, err)
			}
			s.log.Info().Str("email", email).Msg("master account created")
		case err != nil:
			return fmt.Errorf("bootstrap %s: %w", email, err)
		case !user.Active && user.IsAdmin():
			if err := s.repo.SetActive(ctx, user.ID, true); err != nil {
				return fmt.Errorf("bootstrap %s: %w", email, err)
			}
			s.log.Info().Str("email", email).Msg("master account reactivated")
		}
	}
	return nil
}

// Login resolves an email to an account. There is no password: the email
// is the whole credential.
func (s *UserService) Login(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.InvalidField("email", "is required")
	}

	if _, ok := s.masters[email]; ok {
		metrics.LoginsTotal.WithLabelValues("master").Inc()
		return s.escalateMaster(ctx, email)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("unknown").Inc()
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !user.Active {
		metrics.LoginsTotal.WithLabelValues("disabled").Inc()
		s.log.Info().Int64("user_id", user.ID).Msg("login refused for disabled account")
		return nil, domain.ErrAccountDisabled
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return user, nil
}

// escalateMaster returns the master account for email, creating it or
// turning it into an active admin as needed.
func (s *UserService) escalateMaster(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = s.repo.Create(ctx, masterUser(email))
		if errors.Is(err, domain.ErrDuplicateKey) {
			// A concurrent login created it first.
			user, err = s.repo.FindByEmail(ctx, email)
		} else if err == nil {
			s.log.Info().Str("email", email).Msg("master account created on login")
			s.publish(ctx, domain.UserUpdated())
			return user, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("login master: %w", err)
	}

	if !user.Active || !user.IsAdmin() {
		if err := s.repo.Promote(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("login master: promote: %w", err)
		}
		user.Active = true
		user.Role = domain.RoleAdmin
		s.log.Info().Int64("user_id", user.ID).Msg("master account promoted")
		s.publish(ctx, domain.UserUpdated())
	}
	return user, nil
}

// ListUsers returns every account ordered by id.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateUser registers a new account. Emails are unique regardless of case.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = domain.RoleSeller
	}

	var fields []string
	if name == "" {
		fields = append(fields, "name is required")
	}
	if email == "" {
		fields = append(fields, "email is required")
	}
	if !role.Valid() {
		fields = append(fields, "role must be one of: admin seller")
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	user, err := s.repo.Create(ctx, &domain.User{Name: name, Email: email, Role: role, Active: true})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	s.publish(ctx, domain.UserUpdated())
	return user, nil
}

// SetUserActive enables or disables an account and publishes USER_UPDATED.
func (s *UserService) SetUserActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	s.log.Info().Int64("user_id", id).Bool("active", active).Msg("user activation changed")
	s.publish(ctx, domain.UserUpdated())
	return nil
}

// DeleteUser removes an account that owns no clients.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	s.publish(ctx, domain.UserUpdated())
	return nil
}

func (s *UserService) publish(ctx context.Context, ev domain.Event) {
	publish(ctx, s.notifier, s.log, ev)
}

func masterUser(email string) *domain.User {
	return &domain.User{
		Name:   domain.AdminDisplayName,
		Email:  email,
		Role:   domain.RoleAdmin,
		Active: true,
	}
}
