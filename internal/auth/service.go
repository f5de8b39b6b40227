// service.go implements the account service: sign-up, sign-in, sign-out,
// session lookup, and profile lookup. It is the single place where identities,
// organizations, and profiles are tied together.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadpocket/leadpocket/internal/db/models"
	"github.com/leadpocket/leadpocket/internal/db/repositories"
)

// ErrInvalidCredentials is returned by SignIn when the email is unknown or the
// password does not match. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned by SignUp when an identity already exists for the email.
var ErrEmailTaken = errors.New("an account with this email already exists")

// PartialSignupError reports a sign-up that failed after the auth identity was
// created. The identity row stays behind with no organization or profile;
// there is no compensating rollback, so callers get the inconsistency spelled
// out instead of a generic failure.
type PartialSignupError struct {
	Step       string // "organization" or "profile"
	IdentityID string
	Err        error
}

func (e *PartialSignupError) Error() string {
	return fmt.Sprintf("partial signup: %s creation failed after identity %s was created: %v", e.Step, e.IdentityID, e.Err)
}

func (e *PartialSignupError) Unwrap() error {
	return e.Err
}

// Service is the account service. One instance is constructed in main and
// shared by the HTTP handlers and the session synchronizer; it holds no
// per-request state.
type Service struct {
	identities  *repositories.IdentityRepository
	orgs        *repositories.OrganizationRepository
	profiles    *repositories.ProfileRepository
	broadcaster *Broadcaster
	sessionTTL  time.Duration
	bcryptCost  int
}

// NewService creates the account service
func NewService(
	identities *repositories.IdentityRepository,
	orgs *repositories.OrganizationRepository,
	profiles *repositories.ProfileRepository,
	broadcaster *Broadcaster,
	sessionTTL time.Duration,
	bcryptCost int,
) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{
		identities:  identities,
		orgs:        orgs,
		profiles:    profiles,
		broadcaster: broadcaster,
		sessionTTL:  sessionTTL,
		bcryptCost:  bcryptCost,
	}
}

// Broadcaster exposes the auth event feed for synchronizer subscriptions
func (s *Service) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// SignUpResult holds the rows created by a successful sign-up
type SignUpResult struct {
	Identity     *models.Identity     `json:"identity"`
	Organization *models.Organization `json:"organization"`
}

// SignUp creates an auth identity, then an organization, then a profile
// referencing both. The three steps are NOT atomic: a failure after the
// identity insert returns *PartialSignupError and leaves the orphaned
// identity in place. The creating profile gets the admin role.
func (s *Service) SignUp(ctx context.Context, email, password, fullName, organizationName string) (*SignUpResult, error) {
	existing, err := s.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	identity := &models.Identity{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
	}
	if err := s.identities.CreateIdentity(ctx, identity); err != nil {
		return nil, err
	}

	org := &models.Organization{Name: organizationName}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, &PartialSignupError{Step: "organization", IdentityID: identity.ID, Err: err}
	}

	profile := &models.Profile{
		Email:          email,
		FullName:       fullName,
		OrganizationID: org.ID,
		AuthUserID:     identity.ID,
		Role:           models.RoleAdmin,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, &PartialSignupError{Step: "profile", IdentityID: identity.ID, Err: err}
	}

	slog.Info("sign-up completed", "identity_id", identity.ID, "organization_id", org.ID)

	return &SignUpResult{Identity: identity, Organization: org}, nil
}

// SignInResult holds the session and token issued by a successful sign-in
type SignInResult struct {
	Token    string           `json:"token"`
	Session  *models.Session  `json:"session"`
	Identity *models.Identity `json:"identity"`
}

// SignIn exchanges credentials for a session. On success a session row is
// created, a JWT bound to it is issued, and a SIGNED_IN event is published.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	identity, err := s.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil || !CheckPassword(password, identity.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.identities.CreateSession(ctx, identity.ID, time.Now().Add(s.sessionTTL))
	if err != nil {
		return nil, err
	}

	token, err := GenerateJWT(session.ID, identity.ID, identity.Email, s.sessionTTL)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(StateChange{
		Event:      EventSignedIn,
		Session:    session,
		IdentityID: identity.ID,
		Email:      identity.Email,
	})

	return &SignInResult{Token: token, Session: session, Identity: identity}, nil
}

// SignOut revokes the session bound to the token and publishes a SIGNED_OUT
// event. Revoking an already-revoked session is a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := ValidateJWT(token)
	if err != nil {
		return fmt.Errorf("invalid session token: %w", err)
	}

	if err := s.identities.RevokeSession(ctx, claims.SessionID); err != nil {
		return err
	}

	s.broadcaster.Publish(StateChange{
		Event:      EventSignedOut,
		IdentityID: claims.IdentityID,
		Email:      claims.Email,
	})

	return nil
}

// GetSession returns the live session bound to the token, or nil when the
// token is absent, malformed, expired, or its session row has been revoked.
// A missing session is not an error: callers ask "is anyone signed in?".
func (s *Service) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		return nil, nil
	}

	session, err := s.identities.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Live(time.Now()) {
		return nil, nil
	}

	return session, nil
}

// GetUserProfile fetches the profile (with organization) for an auth identity.
// Exactly one row must exist; zero rows surfaces repositories.ErrProfileNotFound.
func (s *Service) GetUserProfile(ctx context.Context, authUserID string) (*models.Profile, error) {
	return s.profiles.GetByAuthUserID(ctx, authUserID)
}
