// Package validate provides input validation utilities for gridctl operations,
// ensuring data integrity across configuration management and remote service
// communication.
//
// Implements validation rules for service addresses, task names, and
// configuration parameters. Prevents malformed data from reaching the remote
// task service or producing unusable project directories.
//
// VALIDATION COVERAGE:
//   - Service Addresses: host and port validation for the task service endpoint
//   - Task Names: format validation for task identifiers used as directory names
//   - Configuration: parameter validation for client settings
//
// All functions leverage the go-playground/validator library for standardized
// validation behavior, replacing manual validation code scattered across the
// CLI with centralized, consistent checks.
package validate

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Global validator instance using built-in validations
	validate *validator.Validate
)

func init() {
	validate = validator.New()
	// Using built-in validators: hostname_rfc1123, ip, min, max - no custom registration needed
}

// ServiceAddress represents a validated network address with host and port
// components for the remote task-service endpoint. Uses struct tags for
// automatic validation via the go-playground/validator library.
type ServiceAddress struct {
	Host string `validate:"required,hostname_rfc1123|ip"` // Built-in hostname/IP validators
	Port int    `validate:"required,min=1,max=65535"`     // Built-in range validator
}

// String returns the service address in standard "host:port" format suitable
// for building request URLs, configuration display, and logging.
func (sa ServiceAddress) String() string {
	return fmt.Sprintf("%s:%d", sa.Host, sa.Port)
}

// ParseServiceAddress parses and validates a "host:port" address string for
// the remote task-service endpoint. Provides comprehensive validation
// including format checking, hostname/IP validation, and port range
// verification.
//
// Essential for processing user-provided instance addresses from configuration
// files, environment variables, and CLI flags. Ensures the endpoint is
// well-formed before any network operation is attempted, so that a typo in
// the instance address surfaces as a clear usage error rather than an opaque
// connection failure.
func ParseServiceAddress(addr string) (*ServiceAddress, error) {
	if addr == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address format '%s': %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port '%s': %w", portStr, err)
	}

	svcAddr := &ServiceAddress{
		Host: host,
		Port: port,
	}

	// Validate using struct tags
	if err := validate.Struct(svcAddr); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return svcAddr, nil
}

// ValidateField validates individual values against specified validation rules
// using the go-playground/validator library. Provides flexible validation for
// single fields without requiring struct definitions.
//
// Supports all built-in validation tags including numeric ranges, string
// patterns, and required field validation.
//
// Example: ValidateField(42, "required,min=1,max=65535")
func ValidateField(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

// TaskNameFormat validates task names against submission requirements.
// Ensures names contain only [a-zA-Z0-9_-] and don't start/end with special
// characters.
//
// Necessary because the task name doubles as the project directory name on the
// local filesystem and as a path segment in task-service request URLs.
func TaskNameFormat(name string) error {
	if name == "" {
		return fmt.Errorf("task name cannot be empty")
	}

	// Check if name contains only allowed characters: letters, numbers, hyphens, underscores
	validNameRegex := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	if !validNameRegex.MatchString(name) {
		return fmt.Errorf("task name '%s' must contain only letters [a-zA-Z], numbers [0-9], hyphens (-), and underscores (_)", name)
	}

	// Ensure it starts and ends with alphanumeric (not - or _)
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "_") ||
		strings.HasSuffix(name, "-") || strings.HasSuffix(name, "_") {
		return fmt.Errorf("task name '%s' cannot start or end with hyphen (-) or underscore (_)", name)
	}

	return nil
}
