package panelclient

import (
	"net/http"
	"net/url"
	"strings"
)

// OperationKind names a logical panel operation that has several route variants
type OperationKind string

const (
	OpAddClient    OperationKind = "add-client"
	OpDeleteClient OperationKind = "delete-client"
	OpListInbounds OperationKind = "list-inbounds"
)

// Path parameter placeholders used in route templates
const (
	ParamInboundID    = "inboundId"
	ParamCredentialID = "credentialId"
)

type route struct {
	method   string
	template string
}

// dialects lists, per operation, the routes of known forks in the order they are tried.
var dialects = map[OperationKind][]route{
	OpAddClient: {
		{http.MethodPost, "/panel/api/inbounds/addClient"}, // 3x-ui (MHSanaei)
		{http.MethodPost, "/xui/API/inbounds/addClient"},   // FranzKafkaYu / alireza0
		{http.MethodPost, "/panel/inbounds/addClient"},
		{http.MethodPost, "/xui/inbound/addClient"}, // legacy x-ui
	},
	OpDeleteClient: {
		{http.MethodPost, "/panel/api/inbounds/delClient/{inboundId}/{credentialId}"},
		{http.MethodPost, "/xui/API/inbounds/delClient/{inboundId}/{credentialId}"},
		{http.MethodPost, "/panel/inbound/delClient/{inboundId}/{credentialId}"},
	},
	OpListInbounds: {
		{http.MethodGet, "/panel/api/inbounds/list"},
		{http.MethodGet, "/xui/API/inbounds/list"},
		{http.MethodGet, "/panel/inbounds/list"},
		{http.MethodGet, "/xui/inbound/list"},
	},
}

// expand fills {name} placeholders with path-escaped values
func (r route) expand(params map[string]string) string {
	if len(params) == 0 {
		return r.template
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", url.PathEscape(value))
	}
	return strings.NewReplacer(pairs...).Replace(r.template)
}
