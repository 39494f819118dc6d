package panelclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// errSessionExpired reports that the panel rejected the session mid-read; the session has been renewed
var errSessionExpired = errors.New("session expired")

// ListInbounds returns the panel's inbounds, or an empty slice when they cannot be read
func (c *Client) ListInbounds(ctx context.Context) []Inbound {
	inbounds, err := c.listInbounds(ctx)
	if err != nil {
		c.logger.Warnf("Listing inbounds on %s failed: %v", c.endpoint.BaseURL, err)
		return []Inbound{}
	}
	return inbounds
}

// GetInbound finds an inbound by its id or by its port
func (c *Client) GetInbound(ctx context.Context, idOrPort int) (*Inbound, bool) {
	return findInbound(c.ListInbounds(ctx), idOrPort)
}

func findInbound(inbounds []Inbound, idOrPort int) (*Inbound, bool) {
	for _, inbound := range inbounds {
		if inbound.ID == idOrPort || inbound.Port == idOrPort {
			found := inbound
			return &found, true
		}
	}
	return nil, false
}

// GetClientStat finds the usage counters of the client with the given email across all inbounds
func (c *Client) GetClientStat(ctx context.Context, email string) (*ClientStat, bool) {
	for _, inbound := range c.ListInbounds(ctx) {
		for _, stat := range inbound.ClientStats {
			if stat.Email == email {
				found := stat
				return &found, true
			}
		}
	}
	return nil, false
}

// Ping lists inbounds and reports the round trip; unlike ListInbounds it tells failure apart from emptiness
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := c.now()
	if _, err := c.listInbounds(ctx); err != nil {
		return 0, err
	}
	return c.now().Sub(start), nil
}

func (c *Client) listInbounds(ctx context.Context) ([]Inbound, error) {
	if err := c.EnsureSession(ctx); err != nil {
		return nil, err
	}

	outcome := c.probe(ctx, OpListInbounds, nil, nil)
	switch outcome.Kind {
	case OutcomeSuccess:
	case OutcomeTransport:
		return nil, outcome.Err
	case OutcomeDefiniteFailure:
		return nil, fmt.Errorf("list inbounds rejected: %s", outcome.Msg)
	case OutcomeSessionExpired:
		return nil, errSessionExpired
	default:
		return nil, fmt.Errorf("list inbounds: %s", outcome.Kind)
	}

	inbounds := []Inbound{}
	if len(outcome.Obj) == 0 || string(outcome.Obj) == "null" {
		return inbounds, nil
	}
	if err := json.Unmarshal(outcome.Obj, &inbounds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inbounds: %w", err)
	}
	return inbounds, nil
}
