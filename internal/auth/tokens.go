package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"signhub.io/internal/obs"
	"signhub.io/internal/tenant"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	defaultIssuer     = "signhub"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the signed token payload. Access tokens carry the tenant, role
// and a permission snapshot; refresh tokens carry only the subject and a
// rotation id.
type Claims struct {
	TenantID    string   `json:"tenant,omitempty"`
	Role        Role     `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"token_type"`
	RotationID  string   `json:"rotation_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// TokenService issues, verifies, refreshes and revokes signed tokens.
// Access tokens are not individually revocable; their short lifetime bounds
// exposure, and tenant suspension is re-checked on every verification.
type TokenService struct {
	users       UserStore
	memberships MembershipStore
	revoked     RevocationStore
	directory   tenant.Directory

	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService) error

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) error {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewTokenService constructs the service. The signing secret is mandatory;
// everything else has defaults.
func NewTokenService(users UserStore, memberships MembershipStore, revoked RevocationStore, directory tenant.Directory, secret string, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if users == nil || memberships == nil || revoked == nil || directory == nil {
		return nil, errors.New("auth: all token service dependencies are required")
	}
	s := &TokenService{
		users:       users,
		memberships: memberships,
		revoked:     revoked,
		directory:   directory,
		secret:      []byte(secret),
		issuer:      defaultIssuer,
		accessTTL:   defaultAccessTTL,
		refreshTTL:  defaultRefreshTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Login authenticates credentials against the resolved tenant and issues a
// token pair. All credential failures collapse into ErrInvalidCredentials so
// responses cannot be used to enumerate accounts or foreign memberships.
func (s *TokenService) Login(ctx context.Context, tnt tenant.Tenant, email, password string) (TokenPair, User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}
	if user.Status != UserStatusActive {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}
	pair, err := s.IssueFor(ctx, tnt, user)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMembershipInactive) {
			return TokenPair{}, User{}, ErrInvalidCredentials
		}
		return TokenPair{}, User{}, err
	}
	obs.ObserveTokenIssued("login")
	return pair, user, nil
}

// IssueFor mints a token pair for an already-authenticated user within the
// tenant. The access token snapshots the membership's effective permissions
// at issuance.
func (s *TokenService) IssueFor(ctx context.Context, tnt tenant.Tenant, user User) (TokenPair, error) {
	if !tnt.Active() {
		return TokenPair{}, tenant.ErrSuspended
	}
	m, err := s.memberships.FindMembership(ctx, tnt.ID, user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if !m.Active {
		return TokenPair{}, ErrMembershipInactive
	}
	if !m.Role.Valid() {
		return TokenPair{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, m.Role)
	}

	now := s.now().UTC()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)
	rotationID := uuid.NewString()

	access := Claims{
		TenantID:    tnt.ID,
		Role:        m.Role,
		Permissions: EffectivePermissions(m.Role, m.CustomPermissions),
		TokenType:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
			ID:        uuid.NewString(),
		},
	}
	refresh := Claims{
		TokenType:  TokenTypeRefresh,
		RotationID: rotationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        uuid.NewString(),
		},
	}

	accessToken, err := s.sign(access)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.sign(refresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks an access token's signature, shape and expiry, then
// re-validates that the claimed tenant is still active. A tenant suspended
// after issuance invalidates its outstanding access tokens within one token
// lifetime.
func (s *TokenService) Verify(ctx context.Context, token string) (Claims, error) {
	claims, err := s.parse(token, TokenTypeAccess)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			obs.ObserveTokenVerification("expired")
		} else {
			obs.ObserveTokenVerification("invalid")
		}
		return Claims{}, err
	}
	if claims.TenantID == "" {
		obs.ObserveTokenVerification("invalid")
		return Claims{}, ErrTokenInvalid
	}
	active, err := s.directory.IsActive(ctx, claims.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			obs.ObserveTokenVerification("invalid")
			return Claims{}, ErrTokenInvalid
		}
		return Claims{}, err
	}
	if !active {
		obs.ObserveTokenVerification("suspended")
		return Claims{}, tenant.ErrSuspended
	}
	obs.ObserveTokenVerification("ok")
	return claims, nil
}

// Refresh rotates a refresh token: the presented rotation id is retired and
// a fresh pair is issued. A rotation id seen twice means replay of a stolen
// or stale token and fails with ErrTokenRevoked.
func (s *TokenService) Refresh(ctx context.Context, tnt tenant.Tenant, token string) (TokenPair, User, error) {
	claims, err := s.parse(token, TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, User{}, err
	}
	if claims.RotationID == "" {
		return TokenPair{}, User{}, ErrTokenInvalid
	}
	if revoked, err := s.revoked.IsRevoked(ctx, claims.RotationID); err != nil {
		return TokenPair{}, User{}, err
	} else if revoked {
		return TokenPair{}, User{}, ErrTokenRevoked
	}

	user, err := s.users.FindUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, User{}, ErrTokenInvalid
		}
		return TokenPair{}, User{}, err
	}
	if user.Status != UserStatusActive {
		return TokenPair{}, User{}, ErrTokenInvalid
	}

	// Issuance preconditions come before the rotation id is retired: a
	// refresh presented against a suspended tenant or a deactivated
	// membership must not burn a still-valid token.
	if !tnt.Active() {
		return TokenPair{}, User{}, tenant.ErrSuspended
	}
	m, err := s.memberships.FindMembership(ctx, tnt.ID, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, User{}, ErrTokenInvalid
		}
		return TokenPair{}, User{}, err
	}
	if !m.Active {
		return TokenPair{}, User{}, ErrTokenInvalid
	}

	// Retire before minting: if this id was concurrently consumed, the
	// store reports it and the replay loses.
	already, err := s.revoked.Revoke(ctx, claims.RotationID, claims.ExpiresAt.Time)
	if err != nil {
		return TokenPair{}, User{}, err
	}
	if already {
		return TokenPair{}, User{}, ErrTokenRevoked
	}

	pair, err := s.IssueFor(ctx, tnt, user)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMembershipInactive) {
			return TokenPair{}, User{}, ErrTokenInvalid
		}
		return TokenPair{}, User{}, err
	}
	obs.ObserveTokenIssued("refresh")
	return pair, user, nil
}

// InspectRefresh validates a refresh token's signature, shape and expiry
// without touching any store. Callers use the subject for per-principal
// throttling before a rotation is attempted.
func (s *TokenService) InspectRefresh(token string) (Claims, error) {
	return s.parse(token, TokenTypeRefresh)
}

// Revoke retires a refresh token's rotation id. Idempotent: revoking an
// already-revoked token succeeds.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token, TokenTypeRefresh)
	if err != nil {
		// An expired refresh token is harmless to revoke again.
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}
	if claims.RotationID == "" {
		return ErrTokenInvalid
	}
	_, err = s.revoked.Revoke(ctx, claims.RotationID, claims.ExpiresAt.Time)
	return err
}

func (s *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(token, wantType string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrTokenInvalid
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if claims.TokenType != wantType {
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrTokenInvalid
	}
	return *claims, nil
}
