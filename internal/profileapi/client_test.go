package profileapi

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"game-wallet-custody-go/internal/models"

	"github.com/mr-tron/base58"
)

// testSigner signs auth challenges with a throwaway ed25519 key, standing in
// for the external wallet.
type testSigner struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate signer key: %v", err)
	}
	return &testSigner{pub: pub, priv: priv}
}

func (s *testSigner) PublicKey() string { return base58.Encode(s.pub) }

func (s *testSigner) SignMessage(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(models.ProfileAPIConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		RetryAttempts:  3,
		RetryDelay:     10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

// authServer implements the nonce/verify handshake and a profile endpoint,
// verifying signatures the way the real service does.
func authServer(t *testing.T) *httptest.Server {
	t.Helper()

	const nonce = "test-nonce-1"
	const challenge = "Sign this message to authenticate: test-nonce-1"
	const token = "session-token-abc"

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/nonce", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PublicKey string `json:"publicKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicKey == "" {
			http.Error(w, "missing public key", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"nonce":   nonce,
			"message": challenge,
		})
	})
	mux.HandleFunc("/auth/verify-signature", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PublicKey string `json:"publicKey"`
			Message   string `json:"message"`
			Signature string `json:"signature"`
			Nonce     string `json:"nonce"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		pub, err := base58.Decode(req.PublicKey)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			http.Error(w, "bad public key", http.StatusBadRequest)
			return
		}
		sig, err := base58.Decode(req.Signature)
		if err != nil || !ed25519.Verify(ed25519.PublicKey(pub), []byte(req.Message), sig) {
			http.Error(w, "bad signature", http.StatusUnauthorized)
			return
		}
		if req.Nonce != nonce {
			http.Error(w, "bad nonce", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(models.RemoteProfile{
			Username: "RemotePlayer",
			XP:       1200,
			Badges:   []string{"early_adopter"},
			Streaks:  models.RemoteStreaks{Current: 2, Longest: 9},
			VIPTier:  "Silver",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAuthenticateAndFetchProfile(t *testing.T) {
	server := authServer(t)
	client := newTestClient(t, server.URL)
	signer := newTestSigner(t)
	ctx := context.Background()

	if client.HasSession() {
		t.Error("Client should start without a session")
	}
	if err := client.Authenticate(ctx, signer); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !client.HasSession() {
		t.Error("Client should hold a session after the handshake")
	}

	profile, err := client.FetchProfile(ctx)
	if err != nil {
		t.Fatalf("FetchProfile failed: %v", err)
	}
	if profile.Username != "RemotePlayer" || profile.XP != 1200 {
		t.Errorf("Unexpected remote profile: %+v", profile)
	}
	if profile.Streaks.Longest != 9 {
		t.Errorf("Unexpected streaks: %+v", profile.Streaks)
	}
}

func TestFetchProfile_Unauthenticated(t *testing.T) {
	server := authServer(t)
	client := newTestClient(t, server.URL)

	// No handshake: the service rejects the request and the client must
	// surface the terminal sentinel without retrying.
	_, err := client.FetchProfile(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Expected ErrUnauthenticated, got %v", err)
	}
}

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(models.RemoteProfile{Username: "Eventually"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.token = "any"

	profile, err := client.FetchProfile(context.Background())
	if err != nil {
		t.Fatalf("Expected retries to succeed, got %v", err)
	}
	if profile.Username != "Eventually" {
		t.Errorf("Unexpected profile %+v", profile)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestDoJSON_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.token = "any"

	if _, err := client.FetchProfile(context.Background()); err == nil {
		t.Fatal("Expected failure after exhausting attempts")
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestDoJSON_ClientErrorsAreTerminal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.token = "any"

	if err := client.UpdateProfile(context.Background(), "Name", ""); err == nil {
		t.Fatal("Expected a 4xx to fail")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx responses must not be retried, got %d attempts", calls.Load())
	}
}

func TestUpdateProfile_SendsPayload(t *testing.T) {
	var got struct {
		Username  string `json:"username"`
		AvatarURL string `json:"avatarUrl"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profile/update" || r.Method != http.MethodPost {
			http.Error(w, "wrong endpoint", http.StatusNotFound)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.token = "any"

	if err := client.UpdateProfile(context.Background(), "DiceFan", "https://cdn.example.com/a.png"); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if got.Username != "DiceFan" || got.AvatarURL != "https://cdn.example.com/a.png" {
		t.Errorf("Unexpected payload %+v", got)
	}
}
