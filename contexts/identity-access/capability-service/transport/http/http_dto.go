package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GrantCapabilityRequest struct {
	Actor      string `json:"actor"`
	Capability string `json:"capability"`
}

type RevokeCapabilityRequest struct {
	Actor      string `json:"actor"`
	Capability string `json:"capability"`
}

type GrantResponse struct {
	Actor      string    `json:"actor"`
	Capability string    `json:"capability"`
	GrantedBy  string    `json:"granted_by"`
	GrantedAt  time.Time `json:"granted_at"`
}

type CheckCapabilityRequest struct {
	Actor      string `json:"actor"`
	Capability string `json:"capability"`
}

type CheckCapabilityResponse struct {
	Actor      string `json:"actor"`
	Capability string `json:"capability"`
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason"`
}

type CapabilityListResponse struct {
	Actor        string   `json:"actor"`
	Capabilities []string `json:"capabilities"`
}
