package panelclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"xui-keys-bot/internal/constants"
)

// Fixed user-facing failure texts
const (
	MsgLoginFailed          = "Login failed. Check URL and credentials."
	MsgSessionExpired       = "Session expired. Please try again."
	MsgNoCompatibleEndpoint = "No compatible endpoint found. Check panel version."
)

// AddClient provisions a new client credential on the given inbound.
// expireDays <= 0 creates a credential that never expires.
func (c *Client) AddClient(ctx context.Context, inboundID int, email string, limitBytes int64, expireDays int) ProvisionResult {
	if err := c.EnsureSession(ctx); err != nil {
		c.logger.Errorf("Cannot add client %s: %v", email, err)
		return failure(ReasonLoginFailed, MsgLoginFailed)
	}

	id := c.newID()
	secret, err := c.secretFor(ctx, inboundID, id)
	if errors.Is(err, errSessionExpired) {
		c.logger.Warnf("Session expired while reading inbound %d, not adding client %s", inboundID, email)
		return failure(ReasonRetryNeeded, MsgSessionExpired)
	}

	credential := Credential{
		ID:         id,
		Password:   secret,
		Email:      email,
		LimitIP:    constants.ClientIPLimit,
		TotalGB:    limitBytes,
		ExpiryTime: expiryMillis(c.now(), expireDays),
		Enable:     true,
		TgID:       "",
		SubID:      "",
	}

	settingsJSON, err := json.Marshal(map[string]interface{}{
		"clients": []Credential{credential},
	})
	if err != nil {
		c.logger.Errorf("Failed to marshal settings: %v", err)
		return failure(ReasonTransport, fmt.Sprintf("failed to marshal settings: %v", err))
	}

	requestBody := map[string]interface{}{
		"id":       inboundID,
		"settings": string(settingsJSON),
	}

	c.logger.Infof("Adding client to inbound %d with email: %s", inboundID, email)

	outcome := c.probe(ctx, OpAddClient, nil, requestBody)
	switch outcome.Kind {
	case OutcomeSuccess:
		c.logger.Infof("Successfully added client %s to inbound %d", email, inboundID)
		return ProvisionResult{Success: true, CredentialID: id, Email: email}
	case OutcomeDefiniteFailure:
		return failure(ReasonRejected, outcome.Msg)
	case OutcomeSessionExpired:
		return failure(ReasonRetryNeeded, MsgSessionExpired)
	case OutcomeExhausted:
		return failure(ReasonNoCompatibleEndpoint, MsgNoCompatibleEndpoint)
	default:
		msg := "request failed"
		if outcome.Err != nil {
			msg = outcome.Err.Error()
		}
		return failure(ReasonTransport, msg)
	}
}

// DeleteClient removes a credential; it reports false on any failure and never errors
func (c *Client) DeleteClient(ctx context.Context, inboundID int, credentialID string) bool {
	if err := c.EnsureSession(ctx); err != nil {
		c.logger.Warnf("Cannot delete client %s from inbound %d: %v", credentialID, inboundID, err)
		return false
	}

	c.logger.Debugf("Deleting client with UUID %s from inbound %d", credentialID, inboundID)

	outcome := c.probe(ctx, OpDeleteClient, map[string]string{
		ParamInboundID:    strconv.Itoa(inboundID),
		ParamCredentialID: credentialID,
	}, nil)
	if outcome.Kind != OutcomeSuccess {
		c.logger.Warnf("Delete of client %s from inbound %d ended with %s", credentialID, inboundID, outcome.Kind)
		return false
	}

	c.logger.Infof("Successfully deleted client %s from inbound %d", credentialID, inboundID)
	return true
}

// secretFor returns the credential secret for the inbound. Shadowsocks 2022 ciphers
// need a base64 key of the cipher's size; everything else accepts the identifier.
// It fails only with errSessionExpired, since the cipher is then unknown.
func (c *Client) secretFor(ctx context.Context, inboundID int, id string) (string, error) {
	inbounds, err := c.listInbounds(ctx)
	if errors.Is(err, errSessionExpired) {
		return "", err
	}
	if err != nil {
		c.logger.Warnf("Reading inbound %d failed, using identifier as secret: %v", inboundID, err)
		return id, nil
	}

	inbound, ok := findInbound(inbounds, inboundID)
	if !ok || ParseProtocol(inbound.Protocol) != ProtocolShadowsocks || inbound.Settings == "" {
		return id, nil
	}

	var settings shadowsocksSettings
	if err := json.Unmarshal([]byte(inbound.Settings), &settings); err != nil {
		c.logger.Warnf("Auto-detect of shadowsocks cipher failed for inbound %d, using identifier: %v", inboundID, err)
		return id, nil
	}

	key, derived, err := shadowsocks2022Key(settings.Method, c.random)
	if err != nil {
		c.logger.Warnf("Generating shadowsocks 2022 key failed for inbound %d, using identifier: %v", inboundID, err)
		return id, nil
	}
	if !derived {
		return id, nil
	}
	return key, nil
}

// shadowsocks2022Key derives a random key when method is a 2022 cipher
func shadowsocks2022Key(method string, random io.Reader) (string, bool, error) {
	if !strings.Contains(method, "2022") {
		return "", false, nil
	}

	size := 32
	if strings.Contains(method, "128") {
		size = 16
	}

	key := make([]byte, size)
	if _, err := io.ReadFull(random, key); err != nil {
		return "", false, err
	}
	return base64.StdEncoding.EncodeToString(key), true, nil
}

func expiryMillis(now time.Time, days int) int64 {
	if days <= 0 {
		return 0
	}
	return now.UnixMilli() + int64(days)*constants.MillisecondsInDay
}

func failure(reason FailureReason, msg string) ProvisionResult {
	return ProvisionResult{Success: false, Reason: reason, Message: msg}
}
