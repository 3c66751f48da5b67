package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"trackbridge/internal/core"
	"trackbridge/internal/store"
)

const (
	tidalAuthBase   = "https://auth.tidal.com/v1/oauth2"
	tidalScope      = "r_usr w_usr"
	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	// tokenStoreKey is the provider key used in the token store.
	tokenStoreKey = "tidal"
)

// tidalSession manages the user-level TIDAL session. The initial login is
// the OAuth device flow and must happen interactively at startup; afterward
// the refresh token keeps the session alive without user involvement.
type tidalSession struct {
	clientID     string
	clientSecret string
	authBase     string
	tokens       *store.TokenStore
	logger       *zap.Logger
	httpClient   *http.Client

	mutex   sync.Mutex
	current store.StoredToken
	loaded  bool
	invalid bool
}

type deviceAuthResponse struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete"`
	ExpiresIn               int    `json:"expiresIn"`
	Interval                int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error"`
}

func newTidalSession(cfg *core.TidalConfig, tokens *store.TokenStore, logger *zap.Logger) *tidalSession {
	return &tidalSession{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authBase:     tidalAuthBase,
		tokens:       tokens,
		logger:       logger,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// start restores a stored session if one still works, otherwise runs the
// interactive device login.
func (t *tidalSession) start(ctx context.Context) error {
	stored, found, err := t.tokens.Load(ctx, tokenStoreKey)
	if err != nil {
		return err
	}

	if found {
		t.mutex.Lock()
		t.current = stored
		t.loaded = true
		t.mutex.Unlock()

		if _, err := t.token(ctx); err == nil {
			t.logger.Info("Restored TIDAL session from stored token")
			return nil
		}

		t.logger.Warn("Stored TIDAL token unusable, starting device login")
		t.mutex.Lock()
		t.loaded = false
		t.invalid = false
		t.mutex.Unlock()
	}

	return t.deviceLogin(ctx)
}

// token returns a live access token, refreshing first when expired.
func (t *tidalSession) token(ctx context.Context) (string, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.invalid {
		return "", fmt.Errorf("tidal session invalidated: %w", core.ErrAuthRequired)
	}
	if !t.loaded {
		return "", fmt.Errorf("tidal session not established: %w", core.ErrAuthRequired)
	}

	if !t.current.Expired() {
		return t.current.AccessToken, nil
	}

	if t.current.RefreshToken == "" {
		t.invalid = true
		return "", fmt.Errorf("tidal token expired without refresh token: %w", core.ErrAuthRequired)
	}

	if err := t.refreshLocked(ctx); err != nil {
		return "", err
	}

	return t.current.AccessToken, nil
}

func (t *tidalSession) invalidate() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.invalid = true
}

// deviceLogin runs the OAuth device authorization flow. The verification
// link is printed to stdout for the operator; polling continues until the
// login is approved, denied or the device code expires.
func (t *tidalSession) deviceLogin(ctx context.Context) error {
	auth, err := t.requestDeviceCode(ctx)
	if err != nil {
		return fmt.Errorf("request device code: %w", err)
	}

	link := auth.VerificationURIComplete
	if link == "" {
		link = auth.VerificationURI
	}
	if !strings.HasPrefix(link, "http") {
		link = "https://" + link
	}

	fmt.Printf("\nTIDAL login required. Visit:\n\n    %s\n\nand approve this device (code %s).\n\n", link, auth.UserCode)
	t.logger.Info("Waiting for TIDAL device authorization",
		zap.String("user_code", auth.UserCode),
		zap.Int("expires_in", auth.ExpiresIn))

	interval := time.Duration(auth.Interval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}
	deadline := time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("device code expired before approval: %w", core.ErrAuthRequired)
		}

		resp, err := t.requestToken(ctx, url.Values{
			"client_id":   {t.clientID},
			"device_code": {auth.DeviceCode},
			"grant_type":  {deviceGrantType},
			"scope":       {tidalScope},
		})
		if err != nil {
			return fmt.Errorf("poll device token: %w", err)
		}

		switch resp.Error {
		case "":
			t.adopt(ctx, resp)
			t.logger.Info("TIDAL device authorization complete")
			return nil
		case "authorization_pending", "slow_down":
			if resp.Error == "slow_down" {
				interval += time.Second
			}
		default:
			return fmt.Errorf("device authorization failed (%s): %w", resp.Error, core.ErrAuthRequired)
		}
	}
}

// refreshLocked exchanges the refresh token for a new access token. The
// caller must hold the mutex.
func (t *tidalSession) refreshLocked(ctx context.Context) error {
	resp, err := t.requestToken(ctx, url.Values{
		"client_id":     {t.clientID},
		"refresh_token": {t.current.RefreshToken},
		"grant_type":    {"refresh_token"},
		"scope":         {tidalScope},
	})
	if err != nil {
		return fmt.Errorf("refresh tidal token: %w", err)
	}

	if resp.Error != "" || resp.AccessToken == "" {
		t.invalid = true
		return fmt.Errorf("tidal refresh rejected (%s): %w", resp.Error, core.ErrAuthRequired)
	}

	// TIDAL may keep the old refresh token instead of rotating it.
	if resp.RefreshToken == "" {
		resp.RefreshToken = t.current.RefreshToken
	}

	t.adoptLocked(ctx, resp)
	t.logger.Debug("TIDAL token refreshed", zap.Time("expires", t.current.ExpiresAt))
	return nil
}

func (t *tidalSession) adopt(ctx context.Context, resp *tokenResponse) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.adoptLocked(ctx, resp)
}

func (t *tidalSession) adoptLocked(ctx context.Context, resp *tokenResponse) {
	t.current = store.StoredToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	t.loaded = true
	t.invalid = false

	if err := t.tokens.Save(ctx, tokenStoreKey, t.current); err != nil {
		t.logger.Warn("Failed to persist TIDAL token", zap.Error(err))
	}
}

func (t *tidalSession) requestDeviceCode(ctx context.Context) (*deviceAuthResponse, error) {
	form := url.Values{
		"client_id": {t.clientID},
		"scope":     {tidalScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.authBase+"/device_authorization", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("device authorization returned %d: %s", resp.StatusCode, body)
	}

	var auth deviceAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("decode device authorization: %w", err)
	}

	return &auth, nil
}

func (t *tidalSession) requestToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.authBase+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.clientID, t.clientSecret)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	return &token, nil
}
