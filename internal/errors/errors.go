package errors

import (
	"fmt"
)

// ServerNotFoundError represents an error when a configured server is not found
type ServerNotFoundError struct {
	ServerID string
}

// Error returns the error message
func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("server not found: %s", e.ServerID)
}

// ValidationError represents an error when validation fails
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// PanelAPIError represents an unexpected HTTP status from a panel route
type PanelAPIError struct {
	Operation string
	Route     string
	Status    int
	Message   string
}

// Error returns the error message
func (e *PanelAPIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("panel API error during %s at %s (status %d)", e.Operation, e.Route, e.Status)
	}
	return fmt.Sprintf("panel API error during %s at %s (status %d): %s", e.Operation, e.Route, e.Status, e.Message)
}

// ProvisionError carries a user-facing provisioning failure
type ProvisionError struct {
	ServerID string
	Reason   string
	Message  string
}

// Error returns the error message
func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning on %s failed (%s): %s", e.ServerID, e.Reason, e.Message)
}

// StoreError represents a failed persistence operation
type StoreError struct {
	Operation string
	Err       error
}

// Error returns the error message
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// ConfigError represents an error related to configuration
type ConfigError struct {
	Section string
	Message string
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Section, e.Message)
}
