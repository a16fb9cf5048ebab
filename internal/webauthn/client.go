package webauthn

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrChallengeInitiationFailed covers any transport or HTTP failure during
	// the sign-initiate call.
	ErrChallengeInitiationFailed = errors.New("challenge initiation failed")

	// ErrServerSignatureRejected is returned when sign-verify answers with
	// success=false. No encoded signature may be built after it.
	ErrServerSignatureRejected = errors.New("server rejected assertion signature")

	// ErrAssertionAborted is returned when the platform authenticator
	// interaction is cancelled or fails. Retrying requires fresh user
	// interaction and is left to the caller.
	ErrAssertionAborted = errors.New("authenticator assertion aborted")
)

// Client performs the two-phase sign exchange against a passkey server.
// A cookie jar carries the server session between the two calls, which is the
// only state shared across them.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a protocol client for the given passkey server base URL.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

type signInitiatePayload struct {
	Data string `json:"data"`
}

type signVerifyPayload struct {
	Cred *Assertion `json:"cred"`
}

// Initiate asks the server for a signing challenge over the given data, the
// hex form of the message or hash being signed without a 0x prefix.
func (c *Client) Initiate(ctx context.Context, data string) (*ChallengePayload, error) {
	var payload ChallengePayload
	if err := c.post(ctx, "/sign-initiate", signInitiatePayload{Data: data}, &payload); err != nil {
		log.Debug().Err(err).Msg("sign-initiate failed")
		return nil, errors.Wrap(ErrChallengeInitiationFailed, err.Error())
	}

	log.Debug().
		Str("challenge", payload.Challenge).
		Int("allow_credentials", len(payload.AllowCredentials)).
		Msg("sign-initiate successful")

	return &payload, nil
}

// Verify submits the assertion for server-side verification. A transport
// failure surfaces as-is; a success=false answer surfaces as
// ErrServerSignatureRejected since the assertion must not reach the chain.
func (c *Client) Verify(ctx context.Context, assertion *Assertion) (*VerificationResult, error) {
	var result VerificationResult
	if err := c.post(ctx, "/sign-verify", signVerifyPayload{Cred: assertion}, &result); err != nil {
		return nil, errors.Wrap(err, "sign-verify request failed")
	}

	if !result.Success {
		return nil, ErrServerSignatureRejected
	}

	log.Debug().Msg("sign-verify successful")

	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return errors.Wrap(err, "failed to unmarshal response")
		}
	}

	return nil
}
