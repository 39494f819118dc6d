package panelclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Protocol is the closed set of inbound protocols links can be built for
type Protocol int

const (
	ProtocolOther Protocol = iota
	ProtocolVMess
	ProtocolVLESS
	ProtocolShadowsocks
)

// ParseProtocol maps the panel's protocol name to a Protocol
func ParseProtocol(name string) Protocol {
	switch strings.ToLower(name) {
	case "vmess":
		return ProtocolVMess
	case "vless":
		return ProtocolVLESS
	case "shadowsocks":
		return ProtocolShadowsocks
	default:
		return ProtocolOther
	}
}

type linkParams struct {
	host         string
	credentialID string
	email        string
	name         string
}

type linkBuilder func(inbound *Inbound, p linkParams) (string, bool)

// ProtocolOther has no builder on purpose.
var linkBuilders = map[Protocol]linkBuilder{
	ProtocolVMess:       vmessLink,
	ProtocolVLESS:       vlessLink,
	ProtocolShadowsocks: shadowsocksLink,
}

type streamSettings struct {
	Network         string           `json:"network"`
	Security        string           `json:"security"`
	WSSettings      *wsSettings      `json:"wsSettings"`
	RealitySettings *realitySettings `json:"realitySettings"`
}

type wsSettings struct {
	Path string `json:"path"`
}

type realitySettings struct {
	PublicKey   string   `json:"publicKey"`
	Fingerprint string   `json:"fingerprint"`
	ServerNames []string `json:"serverNames"`
	// newer 3x-ui releases keep the client-side values here
	Settings struct {
		PublicKey   string `json:"publicKey"`
		Fingerprint string `json:"fingerprint"`
	} `json:"settings"`
}

func (r *realitySettings) publicKey() string {
	if r.PublicKey != "" {
		return r.PublicKey
	}
	return r.Settings.PublicKey
}

func (r *realitySettings) fingerprint() string {
	if r.Fingerprint != "" {
		return r.Fingerprint
	}
	return r.Settings.Fingerprint
}

func (r *realitySettings) serverName() string {
	if len(r.ServerNames) == 0 {
		return ""
	}
	return r.ServerNames[0]
}

func (s *streamSettings) wsPath() string {
	if s.WSSettings == nil || s.WSSettings.Path == "" {
		return "/"
	}
	return s.WSSettings.Path
}

type shadowsocksSettings struct {
	Method  string `json:"method"`
	Clients []struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"clients"`
}

// vmessConfig field order is the order clients expect in the encoded JSON
type vmessConfig struct {
	V    string `json:"v"`
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port int    `json:"port"`
	ID   string `json:"id"`
	Aid  string `json:"aid"`
	Scy  string `json:"scy"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
}

// BuildLink fetches the inbound and builds the shareable link for a credential on it.
// An empty displayName falls back to the email.
func (c *Client) BuildLink(ctx context.Context, idOrPort int, credentialID, email, displayName string) (string, bool) {
	inbound, ok := c.GetInbound(ctx, idOrPort)
	if !ok {
		c.logger.Warnf("Cannot build link: inbound %d not found on %s", idOrPort, c.endpoint.BaseURL)
		return "", false
	}
	return Link(inbound, c.LinkHost(), credentialID, email, displayName)
}

// Link builds the connection link for a credential on an inbound already in hand
func Link(inbound *Inbound, host, credentialID, email, displayName string) (string, bool) {
	if inbound == nil {
		return "", false
	}
	build, ok := linkBuilders[ParseProtocol(inbound.Protocol)]
	if !ok {
		return "", false
	}

	name := displayName
	if name == "" {
		name = email
	}
	return build(inbound, linkParams{
		host:         host,
		credentialID: credentialID,
		email:        email,
		name:         name,
	})
}

func vmessLink(inbound *Inbound, p linkParams) (string, bool) {
	stream, err := parseStreamSettings(inbound.StreamSettings)
	if err != nil {
		return "", false
	}

	tls := ""
	if stream.Security == "tls" {
		tls = "tls"
	}

	config := vmessConfig{
		V:    "2",
		PS:   p.name,
		Add:  p.host,
		Port: inbound.Port,
		ID:   p.credentialID,
		Aid:  "0",
		Scy:  "auto",
		Net:  stream.Network,
		Type: "none",
		Host: "",
		Path: stream.wsPath(),
		TLS:  tls,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(config); err != nil {
		return "", false
	}
	payload := bytes.TrimRight(buf.Bytes(), "\n")

	return "vmess://" + base64.StdEncoding.EncodeToString(payload), true
}

func vlessLink(inbound *Inbound, p linkParams) (string, bool) {
	stream, err := parseStreamSettings(inbound.StreamSettings)
	if err != nil {
		return "", false
	}

	query := []string{"type=" + stream.Network}
	if stream.Security == "tls" {
		query = append(query, "security=tls")
	}
	if stream.Security == "reality" {
		reality := stream.RealitySettings
		if reality == nil {
			reality = &realitySettings{}
		}
		query = append(query,
			"security=reality",
			"pbk="+reality.publicKey(),
			"fp="+reality.fingerprint(),
			"sni="+reality.serverName(),
		)
	}
	if stream.Network == "ws" {
		query = append(query, "path="+encodeURIComponent(stream.wsPath()))
	}

	return fmt.Sprintf("vless://%s@%s:%d?%s#%s",
		p.credentialID, p.host, inbound.Port, strings.Join(query, "&"), encodeURIComponent(p.name)), true
}

func shadowsocksLink(inbound *Inbound, p linkParams) (string, bool) {
	var settings shadowsocksSettings
	if err := json.Unmarshal([]byte(inbound.Settings), &settings); err != nil {
		return "", false
	}

	for _, client := range settings.Clients {
		if client.Email != p.email {
			continue
		}
		secret := client.Password
		if secret == "" {
			secret = p.credentialID
		}
		userInfo := base64.StdEncoding.EncodeToString([]byte(settings.Method + ":" + secret))
		return fmt.Sprintf("ss://%s@%s:%d#%s", userInfo, p.host, inbound.Port, encodeURIComponent(p.name)), true
	}
	return "", false
}

func parseStreamSettings(raw string) (*streamSettings, error) {
	stream := &streamSettings{}
	if strings.TrimSpace(raw) == "" {
		return stream, nil
	}
	if err := json.Unmarshal([]byte(raw), stream); err != nil {
		return nil, err
	}
	return stream, nil
}

// encodeURIComponent escapes like the JavaScript function of the same name,
// which is what link consumers expect in fragments and path values.
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return strings.NewReplacer(
		"+", "%20",
		"%21", "!",
		"%27", "'",
		"%28", "(",
		"%29", ")",
		"%2A", "*",
	).Replace(escaped)
}
