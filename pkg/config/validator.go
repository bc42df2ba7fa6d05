package config

import (
	"fmt"
	"strings"

	"github.com/jetmock/jetmock/pkg/logging"
)

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Validate checks ports, pool size, logging and Kafka settings.
func (c *ServerConfig) Validate() error {
	if c.MockPort < 0 || c.MockPort >= 65536 {
		return &ValidationError{Field: "mockPort", Message: "mockPort must be between 0 and 65535"}
	}
	if c.AdminPort < 0 || c.AdminPort >= 65536 {
		return &ValidationError{Field: "adminPort", Message: "adminPort must be between 0 and 65535"}
	}
	if c.MockPort > 0 && c.MockPort == c.AdminPort {
		return &ValidationError{
			Field:   "adminPort",
			Message: fmt.Sprintf("adminPort conflicts with mockPort (both are %d)", c.MockPort),
		}
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return &ValidationError{Field: "dataPath", Message: "dataPath is required"}
	}
	if c.Workers <= 0 {
		return &ValidationError{Field: "workers", Message: "workers must be greater than 0"}
	}
	if c.ReadTimeout < 0 {
		return &ValidationError{Field: "readTimeout", Message: "readTimeout must not be negative"}
	}
	if c.WriteTimeout < 0 {
		return &ValidationError{Field: "writeTimeout", Message: "writeTimeout must not be negative"}
	}
	if c.RequestLogSize < 0 {
		return &ValidationError{Field: "requestLogSize", Message: "requestLogSize must not be negative"}
	}
	if !logging.ValidLevel(c.Log.Level) {
		return &ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown log level %q", c.Log.Level)}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return &ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown log format %q", c.Log.Format)}
	}
	if strings.TrimSpace(c.Kafka.ConsumerGroup) == "" {
		return &ValidationError{Field: "kafka.consumerGroup", Message: "consumerGroup is required"}
	}
	return nil
}
