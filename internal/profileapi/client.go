/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package profileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"game-wallet-custody-go/internal/models"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// ErrUnauthenticated signals a 401/403 from the profile service. Callers
// re-run the auth handshake once and retry; it is never retried blindly.
var ErrUnauthenticated = errors.New("profile service rejected session")

// WalletSigner signs the authentication challenge with the external wallet.
// The external wallet is never custodied here, so signing is delegated.
type WalletSigner interface {
	PublicKey() string
	SignMessage(message []byte) ([]byte, error)
}

// Client talks to the remote profile service. All operations are
// best-effort from the manager's point of view: bounded by a per-request
// timeout and a small fixed retry count, never hanging indefinitely.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
	token      string
}

func NewClient(cfg models.ProfileAPIConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("profile API base URL cannot be empty")
	}

	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		attempts:   attempts,
		retryDelay: retryDelay,
	}, nil
}

func createCustomHttpClient() (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{Transport: tr}, nil
}

// HasSession reports whether an authentication handshake has completed.
func (c *Client) HasSession() bool {
	return c.token != ""
}

// doJSON performs one logical request with linear-backoff retries. Auth
// failures and other 4xx responses are terminal; 5xx and transport errors
// are retried up to the configured attempt count.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode request body: %w", err)
		}
		payload = encoded
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * c.retryDelay
			zap.L().Debug("Retrying profile service request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.doOnce(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrUnauthenticated) || !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("profile service request failed after %d attempts: %w", c.attempts, lastErr)
}

// retryableError marks transient failures worth another attempt.
type retryableError struct{ err error }

func (r *retryableError) Error() string { return r.err.Error() }
func (r *retryableError) Unwrap() error { return r.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("unable to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthenticated, resp.StatusCode)
	case resp.StatusCode >= 500:
		return &retryableError{fmt.Errorf("profile service returned %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("profile service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}
	return nil
}

type nonceRequest struct {
	PublicKey string `json:"publicKey"`
}

type nonceResponse struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

type verifyRequest struct {
	PublicKey string `json:"publicKey"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

type verifyResponse struct {
	Token string `json:"token"`
}

// Authenticate runs the nonce/sign/verify handshake with the external
// wallet's signer and stores the resulting session token.
func (c *Client) Authenticate(ctx context.Context, signer WalletSigner) error {
	var nonce nonceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/nonce",
		nonceRequest{PublicKey: signer.PublicKey()}, &nonce); err != nil {
		return fmt.Errorf("unable to fetch auth nonce: %w", err)
	}

	signature, err := signer.SignMessage([]byte(nonce.Message))
	if err != nil {
		return fmt.Errorf("unable to sign auth message: %w", err)
	}

	var verified verifyResponse
	err = c.doJSON(ctx, http.MethodPost, "/auth/verify-signature", verifyRequest{
		PublicKey: signer.PublicKey(),
		Message:   nonce.Message,
		Signature: base58.Encode(signature),
		Nonce:     nonce.Nonce,
	}, &verified)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	c.token = verified.Token
	zap.L().Info("Profile service session established",
		zap.String("public_key", signer.PublicKey()))
	return nil
}

// FetchProfile returns the remote profile for the current session.
func (c *Client) FetchProfile(ctx context.Context) (*models.RemoteProfile, error) {
	var profile models.RemoteProfile
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

type updateProfileRequest struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// UpdateProfile pushes a profile edit to the remote service.
func (c *Client) UpdateProfile(ctx context.Context, username, avatarURL string) error {
	return c.doJSON(ctx, http.MethodPost, "/profile/update",
		updateProfileRequest{Username: username, AvatarURL: avatarURL}, nil)
}
