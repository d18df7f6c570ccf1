// Package iot provides the client for the Yandex IoT cloud API.
package iot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Client talks to the smart-home cloud API on behalf of one credential.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client authorized with the given OAuth token.
// All outbound requests share one rate limiter so bursts of user actions
// cannot hammer the cloud API.
func NewClient(baseURL, token string, timeout time.Duration, rateLimitRPS float64) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if rateLimitRPS == 0 {
		rateLimitRPS = 5.0
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rateLimitRPS), int(rateLimitRPS)),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}

	return data, nil
}

// FetchUserInfo retrieves the full raw snapshot of the user's homes,
// rooms, devices, scenarios and groups.
func (c *Client) FetchUserInfo(ctx context.Context) (*UserInfoResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/user/info", nil)
	if err != nil {
		return nil, err
	}

	var info UserInfoResponse
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	log.Debug().
		Int("households", len(info.Households)).
		Int("rooms", len(info.Rooms)).
		Int("devices", len(info.Devices)).
		Int("scenarios", len(info.Scenarios)).
		Int("groups", len(info.Groups)).
		Msg("Fetched user info")

	return &info, nil
}

// FetchDevice retrieves a single device. Used to backfill devices that a
// room references but the bulk snapshot omits, a known upstream API
// inconsistency.
func (c *Client) FetchDevice(ctx context.Context, deviceID string) (*Device, error) {
	data, err := c.do(ctx, http.MethodGet, "/devices/"+deviceID, nil)
	if err != nil {
		return nil, err
	}

	var device Device
	if err := json.Unmarshal(data, &device); err != nil {
		return nil, fmt.Errorf("failed to decode device %s: %w", deviceID, err)
	}
	return &device, nil
}

// ExecuteScenario runs a scenario by id.
func (c *Client) ExecuteScenario(ctx context.Context, scenarioID string) error {
	_, err := c.do(ctx, http.MethodPost, "/scenarios/"+scenarioID+"/actions", nil)
	if err != nil {
		if IsAuthError(err) || IsNetworkError(err) {
			return err
		}
		return &ActionError{TargetID: scenarioID, Message: err.Error()}
	}
	return nil
}

// SetCapabilityState applies a batch of capability actions to a device or
// group. When turnOnFirst is set an on_off action is prepended so settings
// applied to a powered-off device take effect.
func (c *Client) SetCapabilityState(ctx context.Context, targetID string, actions []CapabilityAction, turnOnFirst bool) error {
	if len(actions) == 0 {
		return nil
	}

	entries := make([]actionEntry, 0, len(actions)+1)
	if turnOnFirst {
		entries = append(entries, actionEntry{
			Type:  CapabilityOnOff,
			State: CapabilityState{Instance: "on", Value: true},
		})
	}
	for _, a := range actions {
		typ := a.Type
		if typ == "" {
			typ = CapabilityOnOff
		}
		entries = append(entries, actionEntry{
			Type:  typ,
			State: CapabilityState{Instance: a.Instance, Value: a.Value},
		})
	}

	body := actionRequest{Devices: []actionDevice{{ID: targetID, Actions: entries}}}

	data, err := c.do(ctx, http.MethodPost, "/devices/actions", body)
	if err != nil {
		if IsAuthError(err) || IsNetworkError(err) {
			return err
		}
		return &ActionError{TargetID: targetID, Message: err.Error()}
	}

	// The batch endpoint reports per-device failures in the body even on 200.
	var result actionResponse
	if err := json.Unmarshal(data, &result); err != nil {
		log.Warn().Err(err).Str("target", targetID).Msg("Unparseable action response, assuming success")
		return nil
	}
	for _, d := range result.Devices {
		if d.ID == targetID && d.ErrorCode != "" {
			return &ActionError{TargetID: targetID, Code: d.ErrorCode, Message: d.ErrorMessage}
		}
	}

	return nil
}
