package panelclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	apperrors "xui-keys-bot/internal/errors"
)

// OutcomeKind classifies the result of probing an operation's route variants
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeDefiniteFailure
	OutcomeSessionExpired
	OutcomeExhausted
	OutcomeTransport
)

// String returns a short name for the outcome
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeDefiniteFailure:
		return "definite_failure"
	case OutcomeSessionExpired:
		return "session_expired"
	case OutcomeExhausted:
		return "all_dialects_exhausted"
	case OutcomeTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// ProbeOutcome is the single terminal result of a probe
type ProbeOutcome struct {
	Kind OutcomeKind
	// Msg is the panel's message for OutcomeDefiniteFailure
	Msg string
	// Obj is the panel's payload for OutcomeSuccess
	Obj json.RawMessage
	// Err is set for OutcomeTransport
	Err error
}

// probe tries the routes of kind in order, one request at a time, until one is definitive.
func (c *Client) probe(ctx context.Context, kind OperationKind, params map[string]string, body interface{}) ProbeOutcome {
	routes := dialects[kind]

	for i, rt := range routes {
		path := rt.expand(params)
		log := c.logger.WithFields(logrus.Fields{
			"panel":     c.endpoint.BaseURL,
			"operation": kind,
			"route":     path,
		})
		log.Debug("Trying panel route")

		resp, err := c.requester.Do(ctx, c.newRequest(rt.method, path, body))
		if err != nil {
			log.Errorf("Panel request failed: %v", err)
			return ProbeOutcome{Kind: OutcomeTransport, Err: err}
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			log.Debug("Route not found (404), trying next dialect")
			continue
		case resp.StatusCode == http.StatusUnauthorized && i == 0:
			log.Info("Session expired, logging in again")
			c.Invalidate()
			if err := c.Login(ctx); err != nil {
				log.Warnf("Re-login failed: %v", err)
			}
			return ProbeOutcome{Kind: OutcomeSessionExpired}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			apiErr := &apperrors.PanelAPIError{
				Operation: string(kind),
				Route:     path,
				Status:    resp.StatusCode,
				Message:   truncate(string(resp.Body), maxLoggedBody),
			}
			log.Errorf("Panel returned status %d", resp.StatusCode)
			return ProbeOutcome{Kind: OutcomeTransport, Err: apiErr}
		}

		var apiResp apiResponse
		if err := json.Unmarshal(resp.Body, &apiResp); err != nil {
			log.Debugf("Route answered without a JSON envelope, trying next dialect: %v", err)
			continue
		}

		if apiResp.Success {
			log.Debug("Route succeeded")
			return ProbeOutcome{Kind: OutcomeSuccess, Obj: apiResp.Obj}
		}
		if apiResp.Msg != "" {
			log.Warnf("Panel rejected request: %s", apiResp.Msg)
			return ProbeOutcome{Kind: OutcomeDefiniteFailure, Msg: apiResp.Msg}
		}

		log.Debug("Route answered without a definitive result, trying next dialect")
	}

	c.logger.Warnf("All %d route variants for %s are missing on %s", len(routes), kind, c.endpoint.BaseURL)
	return ProbeOutcome{Kind: OutcomeExhausted}
}

// newRequest builds a privileged request carrying the session cookie and the CSRF headers some forks check
func (c *Client) newRequest(method, path string, body interface{}) *Request {
	header := http.Header{}
	if token, ok := c.session.token(); ok {
		header.Set("Cookie", token)
	}
	header.Set("Accept", "application/json")
	header.Set("Referer", c.endpoint.BaseURL+"/panel/inbounds")
	header.Set("Origin", c.endpoint.BaseURL)
	if body != nil {
		header.Set("Content-Type", "application/json")
	}

	return &Request{
		Method: method,
		URL:    c.url(path),
		Header: header,
		Body:   body,
	}
}
