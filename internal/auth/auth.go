// Package auth implements bearer-credential authentication against the
// durable credential store.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rajatg17/ai-inference-gateway/internal/credstore"
	"github.com/rajatg17/ai-inference-gateway/internal/security"
)

// ErrUnauthenticated is returned for any missing, malformed, unknown, or
// revoked credential.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Context is the ephemeral, per-request auth result. Immutable after
// construction.
type Context struct {
	TenantID     string
	CredentialID string
}

// CredentialLookup is the subset of credstore.Store the Authenticator needs,
// so tests can substitute an in-memory double.
type CredentialLookup interface {
	GetActiveByHash(ctx context.Context, hash string) (*credstore.Credential, error)
	TouchLastUsed(ctx context.Context, credentialID string) error
}

// Authenticator validates bearer credentials.
type Authenticator struct {
	store  CredentialLookup
	hasher *security.Hasher
	log    *slog.Logger
}

// New creates an Authenticator. log may be nil (defaults to slog.Default()).
func New(store CredentialLookup, hasher *security.Hasher, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{store: store, hasher: hasher, log: log}
}

// Authenticate extracts the bearer token from an `Authorization` header
// value, validates it against the credential store, and returns the
// resulting Context. The header must carry a `Bearer ` prefix; the token is
// trimmed before hashing.
func (a *Authenticator) Authenticate(ctx context.Context, authorizationHeader string) (*Context, error) {
	raw := extractBearer(authorizationHeader)
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	hash := a.hasher.Hash(raw)

	cred, err := a.store.GetActiveByHash(ctx, hash)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	// Best-effort: a failure to record last-used must not fail a request
	// whose lookup already succeeded.
	if err := a.store.TouchLastUsed(ctx, cred.ID); err != nil {
		a.log.WarnContext(ctx, "auth_touch_last_used_failed",
			slog.String("credential_id", cred.ID),
			slog.String("error", err.Error()),
		)
	}

	return &Context{TenantID: cred.TenantID, CredentialID: cred.ID}, nil
}

func extractBearer(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
