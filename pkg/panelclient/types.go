package panelclient

import "encoding/json"

// Endpoint is the static configuration of one panel backend
type Endpoint struct {
	BaseURL  string
	Username string
	Password string
	// PublicHost overrides the host written into connection links.
	// Empty means the hostname of BaseURL is used.
	PublicHost string
}

// Inbound represents a listening endpoint configured on the panel
type Inbound struct {
	ID             int          `json:"id"`
	Up             int64        `json:"up"`
	Down           int64        `json:"down"`
	Total          int64        `json:"total"`
	Remark         string       `json:"remark"`
	Enable         bool         `json:"enable"`
	ExpiryTime     int64        `json:"expiryTime"`
	ClientStats    []ClientStat `json:"clientStats"`
	Listen         string       `json:"listen"`
	Port           int          `json:"port"`
	Protocol       string       `json:"protocol"`
	Settings       string       `json:"settings"`
	StreamSettings string       `json:"streamSettings"`
	Tag            string       `json:"tag"`
}

// ClientStat is the usage snapshot the panel keeps for one client
type ClientStat struct {
	ID         int    `json:"id"`
	InboundID  int    `json:"inboundId"`
	Enable     bool   `json:"enable"`
	Email      string `json:"email"`
	Up         int64  `json:"up"`
	Down       int64  `json:"down"`
	ExpiryTime int64  `json:"expiryTime"`
	Total      int64  `json:"total"`
}

// Credential is the client entry sent to the panel inside the inbound settings blob.
// TotalGB carries a byte count despite its name; that is what the panel expects.
type Credential struct {
	ID         string `json:"id"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	LimitIP    int    `json:"limitIp"`
	TotalGB    int64  `json:"totalGB"`
	ExpiryTime int64  `json:"expiryTime"`
	Enable     bool   `json:"enable"`
	TgID       string `json:"tgId"`
	SubID      string `json:"subId"`
}

// FailureReason classifies a failed provisioning attempt
type FailureReason int

const (
	ReasonNone FailureReason = iota
	// ReasonRejected means the panel answered with an explicit failure message
	ReasonRejected
	// ReasonRetryNeeded means the session expired mid-operation; the caller should try again
	ReasonRetryNeeded
	// ReasonNoCompatibleEndpoint means every known route variant was missing
	ReasonNoCompatibleEndpoint
	// ReasonTransport means the request could not be completed
	ReasonTransport
	// ReasonLoginFailed means no session could be established
	ReasonLoginFailed
)

// String returns a short name for the reason
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonRejected:
		return "rejected"
	case ReasonRetryNeeded:
		return "retry_needed"
	case ReasonNoCompatibleEndpoint:
		return "no_compatible_endpoint"
	case ReasonTransport:
		return "transport"
	case ReasonLoginFailed:
		return "login_failed"
	default:
		return "unknown"
	}
}

// ProvisionResult is the terminal value of AddClient
type ProvisionResult struct {
	Success      bool
	CredentialID string
	Email        string
	Reason       FailureReason
	Message      string
}

// apiResponse is the envelope every panel dialect answers with
type apiResponse struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}
