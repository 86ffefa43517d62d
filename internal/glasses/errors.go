package glasses

import (
	"fmt"
	"strings"
)

// Error types for glasses session operations

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNotConnected indicates a command was issued without a ready session
	ErrTypeNotConnected ErrorType = iota
	// ErrTypeTransport indicates a BLE-level failure (write failed, link dropped)
	ErrTypeTransport
	// ErrTypeDiscovery indicates no matching glasses were found during scan
	ErrTypeDiscovery
	// ErrTypeTimeout indicates an operation exceeded its deadline
	ErrTypeTimeout
	// ErrTypeValidation indicates invalid input (oversize text, bad page id)
	ErrTypeValidation
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNotConnected:
		return "Not Connected"
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeDiscovery:
		return "Discovery Failed"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// GlassesError represents an error that occurred while talking to the glasses
type GlassesError struct {
	Type      ErrorType // Category of error
	Message   string    // Human-readable error message
	Device    string    // Device name or address (for context)
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *GlassesError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *GlassesError) Unwrap() error {
	return e.Err
}

// NewNotConnectedError creates an error for commands issued without a session
func NewNotConnectedError(operation string) *GlassesError {
	return &GlassesError{
		Type:      ErrTypeNotConnected,
		Message:   fmt.Sprintf("%s requires a connected session", operation),
		Retryable: false,
	}
}

// NewTransportError creates a BLE transport error
func NewTransportError(message string, err error) *GlassesError {
	return &GlassesError{
		Type:      ErrTypeTransport,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewDiscoveryError creates a discovery error
func NewDiscoveryError(message string) *GlassesError {
	return &GlassesError{
		Type:      ErrTypeDiscovery,
		Message:   message,
		Retryable: true,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string, err error) *GlassesError {
	return &GlassesError{
		Type:      ErrTypeTimeout,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *GlassesError {
	return &GlassesError{
		Type:      ErrTypeValidation,
		Message:   message,
		Retryable: false,
	}
}

// IsNotConnectedError checks if an error means the session is not ready
func IsNotConnectedError(err error) bool {
	if gErr, ok := err.(*GlassesError); ok {
		return gErr.Type == ErrTypeNotConnected
	}
	return false
}

// IsTransportError checks if an error is a BLE transport error
func IsTransportError(err error) bool {
	if gErr, ok := err.(*GlassesError); ok {
		return gErr.Type == ErrTypeTransport
	}
	return false
}

// IsDiscoveryError checks if an error is a discovery error
func IsDiscoveryError(err error) bool {
	if gErr, ok := err.(*GlassesError); ok {
		return gErr.Type == ErrTypeDiscovery
	}
	return false
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	if gErr, ok := err.(*GlassesError); ok {
		return gErr.Type == ErrTypeTimeout
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if gErr, ok := err.(*GlassesError); ok {
		return gErr.Type == ErrTypeValidation
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if gErr, ok := err.(*GlassesError); ok {
		return gErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	gErr, ok := err.(*GlassesError)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch gErr.Type {
	case ErrTypeNotConnected:
		return strings.Join([]string{
			"No glasses session is active.",
			"Troubleshooting:",
			"  • Run the connect command (or the connect method on the bridge) first",
			"  • If you just disconnected, the counters were reset - connect again",
		}, "\n")

	case ErrTypeDiscovery:
		return strings.Join([]string{
			"No Even G2 glasses were found during the scan.",
			"Troubleshooting:",
			"  • Take the glasses out of the charging case and unfold them",
			"  • Make sure they are not connected to the vendor app on your phone",
			"  • Move the glasses closer to your Bluetooth adapter",
			"  • Check that Bluetooth is powered on (bluetoothctl power on)",
		}, "\n")

	case ErrTypeTransport:
		return strings.Join([]string{
			"The BLE link to the glasses failed.",
			"Troubleshooting:",
			"  • The glasses may have gone to sleep - wake them and reconnect",
			"  • Folding the glasses drops the connection",
			"  • Check for interference or distance from the adapter",
			"  • Restart the Bluetooth stack if the adapter is wedged",
		}, "\n")

	case ErrTypeTimeout:
		return strings.Join([]string{
			"The operation did not finish in time.",
			"Troubleshooting:",
			"  • Increase the scan or response timeout",
			"  • The glasses respond slowly right after waking - try again",
		}, "\n")

	case ErrTypeValidation:
		return "The command input is invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	gErr, ok := err.(*GlassesError)
	if !ok {
		return err.Error()
	}

	switch gErr.Type {
	case ErrTypeNotConnected:
		return "Not connected - run connect first"
	case ErrTypeDiscovery:
		return "No glasses found - are they unfolded and in range?"
	case ErrTypeTransport:
		if gErr.Device != "" {
			return fmt.Sprintf("BLE link to %s failed", gErr.Device)
		}
		return "BLE link failed"
	case ErrTypeTimeout:
		return "Glasses not responding (timeout)"
	case ErrTypeValidation:
		return gErr.Message
	default:
		return gErr.Message
	}
}
