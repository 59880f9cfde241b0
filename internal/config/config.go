package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Connections map[string]Connection `yaml:"connections"`
	Export      ExportConfig          `yaml:"export"`
	UI          UIConfig              `yaml:"ui"`
}

// Duration wraps time.Duration so the settings file can say "250ms".
// yaml.v3 has no native duration support.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Connection is one named server entry in the settings file.
type Connection struct {
	Endpoint        string   `yaml:"endpoint"`
	SecurityPolicy  string   `yaml:"security_policy"`
	SecurityMode    string   `yaml:"security_mode"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	PublishInterval Duration `yaml:"publish_interval"`
}

// ExportConfig controls the optional websocket fan-out of live values.
type ExportConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Throttle Duration `yaml:"throttle"`
}

type UIConfig struct {
	LogLines int `yaml:"log_lines"`
}

func (e ExportConfig) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Export: ExportConfig{
			Host:     "127.0.0.1",
			Port:     8097,
			Throttle: Duration(100 * time.Millisecond),
		},
		UI: UIConfig{
			LogLines: 500,
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	for name, conn := range cfg.Connections {
		if conn.PublishInterval <= 0 {
			conn.PublishInterval = Duration(500 * time.Millisecond)
			cfg.Connections[name] = conn
		}
	}

	return cfg, nil
}

// Names returns the connection names in stable sorted order for display.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Connection(name string) (Connection, bool) {
	conn, ok := c.Connections[name]
	return conn, ok
}

// MaskedRows renders the connection for display with secrets hidden.
func (c Connection) MaskedRows() [][2]string {
	password := ""
	if c.Password != "" {
		password = "********"
	}
	return [][2]string{
		{"endpoint", c.Endpoint},
		{"security_policy", c.SecurityPolicy},
		{"security_mode", c.SecurityMode},
		{"username", c.Username},
		{"password", password},
		{"publish_interval", c.PublishInterval.String()},
	}
}
