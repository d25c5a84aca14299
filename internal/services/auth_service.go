package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/mail"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

type AuthService struct {
	users     *store.UserStore
	hasher    *auth.PasswordHasher
	issuer    *auth.SessionIssuer
	mailer    mail.Dispatcher
	composer  *mail.Composer
	events    events.Publisher
	verifiers map[store.Provider]identity.Verifier
	cfg       *config.Config
	now       func() time.Time
}

func NewAuthService(
	users *store.UserStore,
	hasher *auth.PasswordHasher,
	issuer *auth.SessionIssuer,
	mailer mail.Dispatcher,
	publisher events.Publisher,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		mailer:    mailer,
		composer:  mail.NewComposer(cfg.PublicBaseURL),
		events:    publisher,
		verifiers: make(map[store.Provider]identity.Verifier),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for token expiry.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// RegisterVerifier enables federated login for provider.
func (s *AuthService) RegisterVerifier(provider store.Provider, v identity.Verifier) {
	s.verifiers[provider] = v
}

func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := store.NormalizeEmail(req.Email)

	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	if taken, err := s.users.EmailExists(ctx, email); err != nil {
		return nil, err
	} else if taken {
		metrics.AuthRegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, ErrEmailTaken
	}
	if taken, err := s.users.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if taken {
		metrics.AuthRegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	token, err := auth.NewActionToken()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(s.cfg.VerificationTTL)

	user := &models.User{
		Username:                 username,
		Email:                    email,
		PasswordHash:             hash,
		Role:                     models.RoleUser,
		IsActive:                 true,
		NotificationsEnabled:     true,
		Privacy:                  "public",
		Plan:                     models.TierFree,
		EmailVerificationToken:   &token,
		EmailVerificationExpires: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// lost a race with a concurrent signup; report the field that collided
			metrics.AuthRegistrationsTotal.WithLabelValues("duplicate").Inc()
			if taken, _ := s.users.EmailExists(ctx, email); taken {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		metrics.AuthRegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AuthRegistrationsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("verification").Inc()

	if err := s.sendVerification(ctx, user, token); err != nil {
		slog.Error("verification email failed", "user_id", user.ID.String(), "action", "signup", "error", err)
	}
	events.Emit(ctx, s.events, events.Event{Type: events.UserRegistered, UserID: user.ID, At: s.now()})

	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.users.ConsumeVerificationToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, store.ErrTokenInvalid) {
			metrics.ActionTokensConsumedTotal.WithLabelValues("verification", "invalid").Inc()
			return nil, ErrInvalidActionToken
		}
		return nil, err
	}
	metrics.ActionTokensConsumedTotal.WithLabelValues("verification", "success").Inc()
	events.Emit(ctx, s.events, events.Event{Type: events.UserVerified, UserID: user.ID, At: s.now()})
	return user, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = store.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	token, err := auth.NewActionToken()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationToken(ctx, user.ID, token, s.now().Add(s.cfg.VerificationTTL)); err != nil {
		return err
	}
	metrics.TokensIssuedTotal.WithLabelValues("verification").Inc()

	if err := s.sendVerification(ctx, user, token); err != nil {
		slog.Error("verification email failed", "user_id", user.ID.String(), "action", "resend_verification", "error", err)
		return fmt.Errorf("%w: %v", ErrMailFailed, err)
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.checkCredentials(ctx, req)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("password", loginResult(err)).Inc()
		return nil, err
	}
	metrics.AuthLoginsTotal.WithLabelValues("password", "success").Inc()
	return s.session(user, auth.SessionPassword, "Login successful")
}

// AdminLogin authenticates the same way as Login and then requires an active admin.
func (s *AuthService) AdminLogin(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := store.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.AuthLoginsTotal.WithLabelValues("admin", "invalid_credentials").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		metrics.AuthLoginsTotal.WithLabelValues("admin", "invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}
	if err := Authorize(user, models.RoleAdmin); err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("admin", loginResult(err)).Inc()
		return nil, err
	}

	metrics.AuthLoginsTotal.WithLabelValues("admin", "success").Inc()
	return s.session(user, auth.SessionPassword, "Admin login successful")
}

func (s *AuthService) checkCredentials(ctx context.Context, req *dto.LoginRequest) (*models.User, error) {
	email := store.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	user, err := s.users.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}
	return user, nil
}

// ForgotPassword never reports whether the address is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = store.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("password reset requested for unknown email", "action", "forgot_password")
			return nil
		}
		return err
	}

	token, err := auth.NewActionToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, auth.HashActionToken(token), s.now().Add(s.cfg.ResetTTL)); err != nil {
		return err
	}
	metrics.TokensIssuedTotal.WithLabelValues("reset").Inc()

	msg, err := s.composer.PasswordReset(user.Email, user.Username, token, humanTTL(s.cfg.ResetTTL))
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	metrics.MailsSentTotal.WithLabelValues("reset", metrics.Result(err)).Inc()
	if err != nil {
		slog.Error("password reset email failed", "user_id", user.ID.String(), "action", "forgot_password", "error", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		return ErrInvalidActionToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user, err := s.users.ConsumeResetToken(ctx, auth.HashActionToken(token), s.now(), hash)
	if err != nil {
		if errors.Is(err, store.ErrTokenInvalid) {
			metrics.ActionTokensConsumedTotal.WithLabelValues("reset", "invalid").Inc()
			return ErrInvalidActionToken
		}
		return err
	}

	metrics.ActionTokensConsumedTotal.WithLabelValues("reset", "success").Inc()
	events.Emit(ctx, s.events, events.Event{Type: events.PasswordReset, UserID: user.ID, At: s.now()})
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return ErrPasswordsRequired
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}

	user, err := s.users.FindCredentialsByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	events.Emit(ctx, s.events, events.Event{Type: events.PasswordChanged, UserID: userID, At: s.now()})
	return nil
}

// FederatedLogin signs a user in with a provider identity token. Accounts are
// matched by provider subject, then by a provider-verified email; admin
// accounts are never linked this way. First-time users get an unusable random
// password.
func (s *AuthService) FederatedLogin(ctx context.Context, provider store.Provider, req *dto.FederatedLoginRequest) (*dto.AuthResponse, error) {
	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, identity.ErrNotConfigured
	}

	id, err := verifier.Verify(ctx, req.IdentityToken)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(string(provider), "invalid_token").Inc()
		return nil, err
	}

	user, err := s.users.FindByProvider(ctx, provider, id.Subject)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.linkOrCreate(ctx, provider, id, req)
	}
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(string(provider), "error").Inc()
		return nil, err
	}

	if err := Authorize(user, models.RoleUser); err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(string(provider), loginResult(err)).Inc()
		return nil, err
	}

	metrics.AuthLoginsTotal.WithLabelValues(string(provider), "success").Inc()
	events.Emit(ctx, s.events, events.Event{
		Type:   events.FederatedSignedIn,
		UserID: user.ID,
		At:     s.now(),
		Data:   map[string]string{"provider": string(provider)},
	})
	return s.session(user, auth.SessionFederated, "Login successful")
}

func (s *AuthService) linkOrCreate(ctx context.Context, provider store.Provider, id *identity.Identity, req *dto.FederatedLoginRequest) (*models.User, error) {
	// Only an address the provider itself verified may claim an existing
	// account. The request email and the relay fallback only name new ones.
	email := store.NormalizeEmail(id.Email)
	vouched := email != "" && id.EmailVerified
	verified := vouched
	if email == "" {
		email = store.NormalizeEmail(req.Email)
	}
	if email == "" && provider == store.ProviderApple {
		email = id.Subject + "@privaterelay.appleid.com"
		verified = true
	}
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !vouched || existing.Role == models.RoleAdmin {
			slog.Warn("federated link refused", "user_id", existing.ID.String(), "provider", string(provider), "vouched", vouched)
			return nil, ErrLinkRefused
		}
		if err := s.users.LinkProvider(ctx, existing.ID, provider, id.Subject); err != nil {
			return nil, err
		}
		if !existing.IsEmailVerified {
			// the provider vouched for the address
			return s.users.Update(ctx, existing.ID, map[string]interface{}{
				"is_email_verified":          true,
				"email_verification_token":   nil,
				"email_verification_expires": nil,
			})
		}
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	username, err := s.availableUsername(ctx, strings.Split(email, "@")[0])
	if err != nil {
		return nil, err
	}
	random, err := auth.NewActionToken()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(random)
	if err != nil {
		return nil, err
	}

	fullName := id.Name
	if fullName == "" {
		fullName = req.FullName
	}
	subject := id.Subject
	user := &models.User{
		Username:             username,
		Email:                email,
		PasswordHash:         hash,
		Role:                 models.RoleUser,
		IsActive:             true,
		FullName:             fullName,
		NotificationsEnabled: true,
		Privacy:              "public",
		Plan:                 models.TierFree,
		IsEmailVerified:      verified,
	}
	switch provider {
	case store.ProviderGoogle:
		user.GoogleID = &subject
	case store.ProviderApple:
		user.AppleID = &subject
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	metrics.AuthRegistrationsTotal.WithLabelValues("federated").Inc()
	events.Emit(ctx, s.events, events.Event{
		Type:   events.UserRegistered,
		UserID: user.ID,
		At:     s.now(),
		Data:   map[string]string{"provider": string(provider)},
	})
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) availableUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 0; i < 5; i++ {
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + uuid.New().String()[:6]
	}
	return "", ErrUsernameTaken
}

// BootstrapAdmin creates the first admin account from configuration when
// enabled and no admin exists yet.
func (s *AuthService) BootstrapAdmin(ctx context.Context) error {
	if !s.cfg.CreateDefaultAdmin {
		return nil
	}
	exists, err := s.users.AdminExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		slog.Info("admin account already present, skipping bootstrap")
		return nil
	}

	email := store.NormalizeEmail(s.cfg.AdminEmail)
	if !ValidEmail(email) {
		return fmt.Errorf("ADMIN_EMAIL is not a valid address: %w", ErrInvalidEmail)
	}
	hash, err := s.hasher.Hash(s.cfg.AdminInitialPassword)
	if err != nil {
		return fmt.Errorf("ADMIN_INITIAL_PASSWORD rejected: %w", err)
	}
	username, err := s.availableUsername(ctx, "admin")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:             username,
		Email:                email,
		PasswordHash:         hash,
		Role:                 models.RoleAdmin,
		IsActive:             true,
		NotificationsEnabled: true,
		Privacy:              "public",
		Plan:                 models.TierFree,
		IsEmailVerified:      true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}
	slog.Info("default admin created", "user_id", admin.ID.String(), "email", admin.Email)
	return nil
}

func (s *AuthService) session(user *models.User, kind auth.SessionKind, message string) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.issuer.Issue(user.ID, user.Role, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("session").Inc()
	return &dto.AuthResponse{
		Message:   message,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User, token string) error {
	msg, err := s.composer.Verification(user.Email, user.Username, token, humanTTL(s.cfg.VerificationTTL))
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	metrics.MailsSentTotal.WithLabelValues("verification", metrics.Result(err)).Inc()
	return err
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrInvalidEmail):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailNotVerified):
		return "unverified"
	case errors.Is(err, ErrAccountDeactivated):
		return "deactivated"
	case errors.Is(err, ErrNotAdmin):
		return "forbidden"
	}
	return "error"
}

func humanTTL(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
