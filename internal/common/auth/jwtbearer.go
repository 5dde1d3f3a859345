// Package auth owns the CRM session obtained through the OAuth 2.0 JWT bearer flow.
package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"crm-gateway/internal/common/config"
	"crm-gateway/internal/common/errors"
	commonhttp "crm-gateway/internal/common/http"
	"crm-gateway/internal/common/logger"
)

const (
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	tokenPath      = "/services/oauth2/token"
)

// Token is an established CRM session.
type Token struct {
	AccessToken string
	InstanceURL string
	IssuedAt    time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Session lazily exchanges a signed assertion for an access token and shares
// it across requests until invalidated.
type Session struct {
	username     string
	consumerKey  string
	loginURL     string
	assertionTTL time.Duration
	key          *rsa.PrivateKey

	client *resty.Client
	logger logger.Logger
	now    func() time.Time

	// exchanging is a one-slot semaphore held for the duration of a token
	// exchange; waiters give up when their context ends.
	exchanging chan struct{}

	mu    sync.Mutex
	token *Token
}

// NewSession parses the signing key up front so a bad key fails at startup.
func NewSession(cfg config.SalesforceConfig, log logger.Logger) (*Session, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalizePEM(cfg.PrivateKeyContent)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse salesforce private key: %w", err)
	}

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	ttl := cfg.AssertionTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}

	loginURL := cfg.LoginURL()
	return &Session{
		username:     cfg.Username,
		consumerKey:  cfg.ConsumerKey,
		loginURL:     loginURL,
		assertionTTL: ttl,
		key:          key,
		client: commonhttp.NewClient(commonhttp.Options{
			BaseURL: loginURL,
			Timeout: cfg.Timeout,
		}),
		logger:     log,
		now:        time.Now,
		exchanging: make(chan struct{}, 1),
	}, nil
}

// Token returns the current session, establishing it on first use.
// Concurrent callers wait for a single exchange, or until ctx is done.
func (s *Session) Token(ctx context.Context) (*Token, error) {
	if token := s.current(); token != nil {
		return token, nil
	}

	select {
	case s.exchanging <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.NewSessionUnavailableError(fmt.Errorf("waiting for token exchange: %w", ctx.Err()))
	}
	defer func() { <-s.exchanging }()

	// Another caller may have finished the exchange while this one waited.
	if token := s.current(); token != nil {
		return token, nil
	}

	token, err := s.exchange(ctx)
	if err != nil {
		s.logger.Error("Salesforce authentication failed", map[string]interface{}{
			"login_url": s.loginURL,
			"username":  s.username,
			"error":     err.Error(),
		})
		return nil, errors.NewSessionUnavailableError(err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.logger.Info("Salesforce session established", map[string]interface{}{
		"instance_url": token.InstanceURL,
	})
	return token, nil
}

func (s *Session) current() *Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Invalidate drops the session if it still holds accessToken, so the next
// Token call re-authenticates. A token already replaced by another request
// is left alone.
func (s *Session) Invalidate(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && s.token.AccessToken == accessToken {
		s.token = nil
		s.logger.Warn("Salesforce session invalidated", nil)
	}
}

func (s *Session) exchange(ctx context.Context) (*Token, error) {
	assertion, err := s.assertion()
	if err != nil {
		return nil, err
	}

	var result tokenResponse
	var failure tokenErrorResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrant,
			"assertion":  assertion,
		}).
		SetResult(&result).
		SetError(&failure).
		Post(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	if resp.IsError() {
		if failure.Error != "" {
			return nil, fmt.Errorf("token request rejected with status %d: %s: %s",
				resp.StatusCode(), failure.Error, failure.ErrorDescription)
		}
		return nil, fmt.Errorf("token request rejected with status %d: %s", resp.StatusCode(), resp.String())
	}

	if result.AccessToken == "" || result.InstanceURL == "" {
		return nil, fmt.Errorf("token response missing access_token or instance_url")
	}

	return &Token{
		AccessToken: result.AccessToken,
		InstanceURL: strings.TrimSuffix(result.InstanceURL, "/"),
		IssuedAt:    s.now(),
	}, nil
}

func (s *Session) assertion() (string, error) {
	now := s.now()
	// aud stays a plain string; the token endpoint rejects an array.
	claims := jwt.MapClaims{
		"iss": s.consumerKey,
		"sub": s.username,
		"aud": s.loginURL,
		"exp": now.Add(s.assertionTTL).Unix(),
		"jti": uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}

// normalizePEM restores newlines in keys injected as a single-line env value.
func normalizePEM(content string) string {
	content = strings.TrimSpace(content)
	if !strings.Contains(content, "\n") && strings.Contains(content, `\n`) {
		content = strings.ReplaceAll(content, `\n`, "\n")
	}
	return content
}
