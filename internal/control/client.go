// Package control proxies playback commands to the Sonos Control API using
// the session credentials held in the state store.
package control

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/strefethen/sonos-relay-go/internal/apperrors"
	"github.com/strefethen/sonos-relay-go/internal/auth"
	"github.com/strefethen/sonos-relay-go/internal/state"
)

// Action is a playback command accepted by the proxy.
type Action string

const (
	ActionPlay   Action = "play"
	ActionPause  Action = "pause"
	ActionToggle Action = "toggle"
)

// actionSubpaths maps relay actions to Sonos Control API playback sub-paths.
var actionSubpaths = map[Action]string{
	ActionPlay:   "play",
	ActionPause:  "pause",
	ActionToggle: "togglePlayPause",
}

// Recorder writes command outcomes to the audit log, best-effort.
type Recorder interface {
	Record(eventType, message string, payload map[string]any)
}

// Client issues playback commands upstream. It is stateless between calls
// apart from reading credentials and writing the play flag in the store.
type Client struct {
	baseURL    string
	store      *state.Store
	httpClient *http.Client
	recorder   Recorder
}

// NewClient creates a control client. recorder may be nil.
func NewClient(baseURL string, timeout time.Duration, store *state.Store, recorder Recorder) *Client {
	return &Client{
		baseURL: baseURL,
		store:   store,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		recorder: recorder,
	}
}

// Execute issues a single best-effort playback command and returns the
// resulting play flag. On success the flag is updated optimistically; there
// is no confirmation re-read, so the flag can drift from upstream truth
// until the next playbackStatus webhook lands. On any failure the flag is
// left untouched.
func (c *Client) Execute(ctx context.Context, action Action) (bool, error) {
	subpath, ok := actionSubpaths[action]
	if !ok {
		return false, apperrors.NewValidationError(fmt.Sprintf("Unknown playback action: %s", action), nil)
	}

	token, groupID, ok := c.store.Session()
	if !ok {
		c.recordFailure(ctx, action, "no session configured")
		return false, apperrors.NewSessionNotConfiguredError()
	}

	url := fmt.Sprintf("%s/groups/%s/playback/%s", c.baseURL, groupID, subpath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return false, apperrors.NewInternalError("Failed to build upstream request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx, action, err.Error())
		return false, apperrors.NewAppError(
			apperrors.ErrorCodeSonosUnreachable,
			"Sonos Control API unreachable: "+err.Error(),
			502,
			nil,
			nil,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.recordFailure(ctx, action, resp.Status)
		return false, apperrors.NewAppError(
			apperrors.ErrorCodeSonosRejected,
			fmt.Sprintf("Sonos Control API rejected %s: %s", action, resp.Status),
			502,
			map[string]any{
				"upstream_status": resp.StatusCode,
				"upstream_body":   string(body),
			},
			nil,
		)
	}

	var playing bool
	switch action {
	case ActionPlay:
		c.store.SetPlaying(true)
		playing = true
	case ActionPause:
		c.store.SetPlaying(false)
		playing = false
	case ActionToggle:
		playing = c.store.TogglePlaying()
	}

	log.Printf("CONTROL: %s succeeded for group %s (playing=%v)", action, groupID, playing)
	if c.recorder != nil {
		payload := map[string]any{
			"action":     string(action),
			"is_playing": playing,
		}
		stampDevice(ctx, payload)
		c.recorder.Record("COMMAND_ISSUED", fmt.Sprintf("Playback command %s issued", action), payload)
	}

	return playing, nil
}

func (c *Client) recordFailure(ctx context.Context, action Action, detail string) {
	if c.recorder == nil {
		return
	}
	payload := map[string]any{
		"action": string(action),
		"detail": detail,
	}
	stampDevice(ctx, payload)
	c.recorder.Record("COMMAND_FAILED", fmt.Sprintf("Playback command %s failed", action), payload)
}

// stampDevice attributes an audit payload to the authenticated device, when
// the request carried one.
func stampDevice(ctx context.Context, payload map[string]any) {
	if user, ok := auth.UserFromContext(ctx); ok {
		payload["device"] = user.DeviceName
	}
}
