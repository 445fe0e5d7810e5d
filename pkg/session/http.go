package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dd0wney/cluso-graphsink/pkg/config"
	"github.com/dd0wney/cluso-graphsink/pkg/executor"
)

// TokenSigner mints short-lived HS256 bearer tokens and reuses one until it
// is close to expiry.
type TokenSigner struct {
	secret  []byte
	subject string
	ttl     time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewTokenSigner(secret, subject string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), subject: subject, ttl: ttl}
}

// Token returns a valid signed token.
func (s *TokenSigner) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.token != "" && now.Add(s.ttl/4).Before(s.expires) {
		return s.token, nil
	}

	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    "graphsink",
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.token, s.expires = token, expires
	return token, nil
}

// HTTPFactory opens sessions against the graph database's HTTP query API.
type HTTPFactory struct {
	baseURL string
	client  *http.Client
	signer  *TokenSigner
	common
}

func NewHTTPFactory(cfg config.Session, opts ...Option) (*HTTPFactory, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("http session: jwt secret is required")
	}
	return &HTTPFactory{
		baseURL: strings.TrimRight(cfg.Address, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		signer:  NewTokenSigner(cfg.JWTSecret, cfg.JWTSubject, cfg.TokenTTL),
		common:  newCommon(TypeHTTP, opts),
	}, nil
}

// Open checks the server's health endpoint and returns a session.
func (f *HTTPFactory) Open(ctx context.Context) (executor.Session, error) {
	err := f.probe(ctx)
	f.opened(TypeHTTP, err)
	if err != nil {
		return nil, err
	}
	return &HTTPSession{factory: f}, nil
}

func (f *HTTPFactory) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("graph database unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("graph database unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryError struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// HTTPSession posts each statement to /query.
type HTTPSession struct {
	factory *HTTPFactory
	closed  bool
}

func (s *HTTPSession) Execute(ctx context.Context, stmt string) (*executor.Result, error) {
	if s.closed {
		return nil, ErrClosed
	}

	token, err := s.factory.signer.Token()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(queryRequest{Query: stmt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.factory.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := s.factory.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	latency := time.Since(start)

	if resp.StatusCode/100 == 2 {
		return &executor.Result{Succeeded: true, Latency: latency}, nil
	}

	res := &executor.Result{ErrorCode: resp.StatusCode, ErrorMessage: http.StatusText(resp.StatusCode), Latency: latency}
	var qe queryError
	if json.Unmarshal(payload, &qe) == nil && qe.Error != "" {
		res.ErrorMessage = qe.Error
		if qe.Code != 0 {
			res.ErrorCode = qe.Code
		}
	}
	return res, nil
}

func (s *HTTPSession) Close() error {
	s.closed = true
	return nil
}
