package config

import (
	"net"
	"strconv"
	"time"
)

// Default values.
const (
	DefaultMockPort      = 4280
	DefaultAdminPort     = 4290
	DefaultDataPath      = "jetmock.db"
	DefaultWorkers       = 64
	DefaultReadTimeout   = 30
	DefaultWriteTimeout  = 30
	DefaultRequestLog    = 1000
	DefaultConsumerGroup = "group-ms-mock"
	DefaultClientID      = "jetmock"
)

// ServerConfig is the full server configuration.
type ServerConfig struct {
	// Host is the interface both servers bind to. Empty binds all interfaces.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	// MockPort serves mocked traffic at /{group}/{path}.
	MockPort int `json:"mockPort" yaml:"mockPort"`
	// AdminPort serves the management API.
	AdminPort int `json:"adminPort" yaml:"adminPort"`
	// DataPath is the bbolt database file. ":memory:" keeps data in memory.
	DataPath string `json:"dataPath" yaml:"dataPath"`
	// Workers sizes the pool running post-trigger steps.
	Workers int `json:"workers" yaml:"workers"`
	// ReadTimeout is the HTTP read timeout in seconds.
	ReadTimeout int `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	// WriteTimeout is the HTTP write timeout in seconds.
	WriteTimeout int `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	// RequestLogSize caps the dispatch history kept for the admin API.
	RequestLogSize int `json:"requestLogSize,omitempty" yaml:"requestLogSize,omitempty"`

	Log   LogConfig   `json:"log" yaml:"log"`
	Kafka KafkaConfig `json:"kafka" yaml:"kafka"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// KafkaConfig configures Kafka clients.
type KafkaConfig struct {
	ConsumerGroup string `json:"consumerGroup" yaml:"consumerGroup"`
	ClientID      string `json:"clientId" yaml:"clientId"`
}

// MemoryDataPath selects the in-memory store.
const MemoryDataPath = ":memory:"

// Default returns a configuration with every default applied.
func Default() *ServerConfig {
	return &ServerConfig{
		MockPort:       DefaultMockPort,
		AdminPort:      DefaultAdminPort,
		DataPath:       DefaultDataPath,
		Workers:        DefaultWorkers,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		RequestLogSize: DefaultRequestLog,
		Log:            LogConfig{Level: "info", Format: "text"},
		Kafka:          KafkaConfig{ConsumerGroup: DefaultConsumerGroup, ClientID: DefaultClientID},
	}
}

// MockAddr returns the listen address of the mock server.
func (c *ServerConfig) MockAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.MockPort))
}

// AdminAddr returns the listen address of the admin API.
func (c *ServerConfig) AdminAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.AdminPort))
}

// ReadTimeoutDuration returns ReadTimeout as a duration.
func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns WriteTimeout as a duration.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}
