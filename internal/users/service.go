package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errMissingDatabase    = errors.New("database handle is required")
	errMissingIDProvider  = errors.New("id provider is required")
	errMissingAccountID   = errors.New("account identifier is required")
	errInvalidEmail       = errors.New("a valid email address is required")
	errWeakPassword       = errors.New("password must be at least 8 characters")
	errEmailTaken         = errors.New("email is already registered")
	errInvalidCredentials = errors.New("email or password is incorrect")
	errNotFound           = errors.New("account not found")
	noOpLogger            = zap.NewNop()
)

const (
	opServiceNew    = "users.service.new"
	opSignUp        = "users.sign_up"
	opSignIn        = "users.sign_in"
	opProfileGet    = "users.profile_get"
	opProfileUpdate = "users.profile_update"
)

const minPasswordLength = 8

// ServiceError carries a stable operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// IsEmailTaken reports whether err represents a sign-up with a used email.
func IsEmailTaken(err error) bool {
	return errors.Is(err, errEmailTaken)
}

// IsInvalidCredentials reports whether err represents a failed sign-in.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, errInvalidCredentials)
}

// IsNotFound reports whether err represents a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the user service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
	// BcryptCost overrides the hashing cost; tests lower it.
	BcryptCost int
}

// Service manages accounts, profiles and role assignments.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
	bcryptCost int
}

// NewService validates the configuration and constructs the user service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		bcryptCost: cost,
	}, nil
}

// SignUp registers a new account with a default profile and the user role.
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, newServiceError(opSignUp, "invalid_email", errInvalidEmail)
	}
	if len(password) < minPasswordLength {
		return Account{}, newServiceError(opSignUp, "weak_password", errWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.logError(opSignUp, "hash_failed", err)
		return Account{}, newServiceError(opSignUp, "hash_failed", err)
	}
	accountID, err := s.idProvider.NewID()
	if err != nil {
		return Account{}, newServiceError(opSignUp, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	account := Account{
		ID:           accountID,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Account{}).Where("email = ?", email).Count(&existing).Error; err != nil {
			return newServiceError(opSignUp, "email_lookup_failed", err)
		}
		if existing > 0 {
			return newServiceError(opSignUp, "email_taken", errEmailTaken)
		}
		if err := tx.Create(&account).Error; err != nil {
			return newServiceError(opSignUp, "account_insert_failed", err)
		}
		profile := Profile{
			AccountID: accountID,
			FullName:  strings.TrimSpace(fullName),
			UpdatedAt: now,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return newServiceError(opSignUp, "profile_insert_failed", err)
		}
		role := UserRole{AccountID: accountID, Role: RoleUser, CreatedAt: now}
		if err := tx.Create(&role).Error; err != nil {
			return newServiceError(opSignUp, "role_insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		if !IsEmailTaken(txErr) {
			s.logError(opSignUp, "transaction_failed", txErr)
		}
		return Account{}, txErr
	}

	return account, nil
}

// SignIn verifies the credentials and returns the account with its role.
// Unknown emails and wrong passwords fail identically.
func (s *Service) SignIn(ctx context.Context, email, password string) (Account, Role, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account Account
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, "", newServiceError(opSignIn, "invalid_credentials", errInvalidCredentials)
	}
	if err != nil {
		s.logError(opSignIn, "account_lookup_failed", err)
		return Account{}, "", newServiceError(opSignIn, "account_lookup_failed", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return Account{}, "", newServiceError(opSignIn, "invalid_credentials", errInvalidCredentials)
	}

	role, err := s.roleOf(ctx, account.ID)
	if err != nil {
		return Account{}, "", err
	}
	return account, role, nil
}

// ProfileWithRole loads the profile and role for one account.
func (s *Service) ProfileWithRole(ctx context.Context, accountID string) (Profile, Role, error) {
	if strings.TrimSpace(accountID) == "" {
		return Profile{}, "", newServiceError(opProfileGet, "missing_account_id", errMissingAccountID)
	}

	var profile Profile
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, "", newServiceError(opProfileGet, "not_found", errNotFound)
	}
	if err != nil {
		s.logError(opProfileGet, "profile_lookup_failed", err, zap.String("account_id", accountID))
		return Profile{}, "", newServiceError(opProfileGet, "profile_lookup_failed", err)
	}

	role, err := s.roleOf(ctx, accountID)
	if err != nil {
		return Profile{}, "", err
	}
	return profile, role, nil
}

// ProfileUpdate carries the editable profile fields; nil fields stay
// untouched.
type ProfileUpdate struct {
	FullName   *string
	Position   *string
	Department *string
}

// UpdateProfile applies a partial profile update and returns the result.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (Profile, error) {
	if strings.TrimSpace(accountID) == "" {
		return Profile{}, newServiceError(opProfileUpdate, "missing_account_id", errMissingAccountID)
	}

	changes := map[string]any{"updated_at": s.clock().UTC()}
	if update.FullName != nil {
		changes["full_name"] = strings.TrimSpace(*update.FullName)
	}
	if update.Position != nil {
		changes["position"] = strings.TrimSpace(*update.Position)
	}
	if update.Department != nil {
		changes["department"] = strings.TrimSpace(*update.Department)
	}

	result := s.db.WithContext(ctx).Model(&Profile{}).
		Where("account_id = ?", accountID).
		Updates(changes)
	if result.Error != nil {
		s.logError(opProfileUpdate, "update_failed", result.Error, zap.String("account_id", accountID))
		return Profile{}, newServiceError(opProfileUpdate, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return Profile{}, newServiceError(opProfileUpdate, "not_found", errNotFound)
	}

	var updated Profile
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Take(&updated).Error; err != nil {
		s.logError(opProfileUpdate, "reload_failed", err, zap.String("account_id", accountID))
		return Profile{}, newServiceError(opProfileUpdate, "reload_failed", err)
	}
	return updated, nil
}

// roleOf falls back to the user role when no assignment row exists.
func (s *Service) roleOf(ctx context.Context, accountID string) (Role, error) {
	var assignment UserRole
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Take(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RoleUser, nil
	}
	if err != nil {
		s.logError(opProfileGet, "role_lookup_failed", err, zap.String("account_id", accountID))
		return "", newServiceError(opProfileGet, "role_lookup_failed", err)
	}
	return assignment.Role, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("users service error", attrs...)
}
