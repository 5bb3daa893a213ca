package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
)

// defaultCertsURL serves the x509 certificates Google uses to sign Firebase
// ID tokens, keyed by the "kid" JWT header.
const defaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// certRefreshInterval bounds how often we re-fetch the certificate set when
// a token references a key we don't have. Google rotates keys on the order
// of days, so a short floor is enough to avoid hammering the endpoint on
// streams of garbage tokens.
const certRefreshInterval = time.Minute

// firebaseClaims is the subset of Firebase ID token claims we care about,
// on top of the registered set.
type firebaseClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// FirebaseVerifier validates Firebase ID tokens issued for one project.
//
// Tokens must be signed with RS256 by one of Google's securetoken keys,
// carry the project ID as audience, and name the project's securetoken
// issuer. The certificate set is cached and refreshed on unknown key IDs.
type FirebaseVerifier struct {
	projectID string
	issuer    string
	certsURL  string
	client    *http.Client

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	lastRefresh time.Time
}

var _ Verifier = (*FirebaseVerifier)(nil)

// NewFirebaseVerifier creates a verifier for the given Firebase project.
func NewFirebaseVerifier(projectID string) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("auth: firebase project id must not be empty")
	}
	return &FirebaseVerifier{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		certsURL:  defaultCertsURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		keys:      map[string]*rsa.PublicKey{},
	}, nil
}

// Verify parses and validates a Firebase ID token.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*model.Identity, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&firebaseClaims{},
		func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("token has no key id")
			}
			return v.keyFor(ctx, kid)
		},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Unauthorized("token expired")
		}
		return nil, apperror.Unauthorized("invalid token")
	}

	claims, ok := parsed.Claims.(*firebaseClaims)
	if !ok || !parsed.Valid {
		return nil, apperror.Unauthorized("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, apperror.Unauthorized("token has no subject")
	}

	return &model.Identity{
		UID:     claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	}, nil
}

// keyFor returns the public key for a key ID, refreshing the cached
// certificate set when the ID is unknown.
func (v *FirebaseVerifier) keyFor(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	v.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no certificate for key id %q", kid)
	}
	return key, nil
}

func (v *FirebaseVerifier) refreshKeys(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if time.Since(v.lastRefresh) < certRefreshInterval {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return fmt.Errorf("auth: building certificate request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: fetching signing certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: certificate endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("auth: reading certificate response: %w", err)
	}

	var pems map[string]string
	if err := json.Unmarshal(body, &pems); err != nil {
		return fmt.Errorf("auth: decoding certificate response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(pems))
	for kid, pemData := range pems {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData))
		if err != nil {
			return fmt.Errorf("auth: parsing certificate %q: %w", kid, err)
		}
		keys[kid] = key
	}

	v.keys = keys
	v.lastRefresh = time.Now()
	return nil
}
