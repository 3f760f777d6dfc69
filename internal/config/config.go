package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int
	LogLevel       string
	LogFormat      string
	Env            string
	RestaurantName string
	Backend        BackendConfig
	Live           LiveConfig
	DB             DBConfig
	Kafka          KafkaConfig
}

// BackendConfig holds the REST backend connection settings
type BackendConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// LiveConfig holds the reconciliation loop settings
type LiveConfig struct {
	PollInterval  time.Duration
	SeenMarkDelay time.Duration
	SoundEnabled  bool
}

// DBConfig holds the database configuration for the operator journal
type DBConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// KafkaConfig holds the broker configuration
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	AlertsTopic   string
	ActionsTopic  string
	OrdersTopic   string
	ConsumerGroup string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("app_env", "development")
	v.SetDefault("restaurant_name", "")

	v.SetDefault("backend_url", "http://localhost:8000/api")
	v.SetDefault("backend_token", "")
	v.SetDefault("backend_timeout", "10s")

	v.SetDefault("poll_interval", "10s")
	v.SetDefault("seen_mark_delay", "1s")
	v.SetDefault("sound_enabled", true)

	v.SetDefault("db_enabled", false)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "dashboard")
	v.SetDefault("db_sslmode", "disable")

	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_alerts_topic", "dashboard.alerts")
	v.SetDefault("kafka_actions_topic", "dashboard.actions")
	v.SetDefault("kafka_orders_topic", "orders.events")
	v.SetDefault("kafka_consumer_group", "restaurant-dashboard")
}

// Load reads the configuration from environment variables and, when
// DASHBOARD_CONFIG names a file, from that YAML file. Environment wins.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("dashboard_config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	backendTimeout, err := duration(v, "backend_timeout")
	if err != nil {
		return nil, err
	}

	pollInterval, err := duration(v, "poll_interval")
	if err != nil {
		return nil, err
	}

	markDelay, err := duration(v, "seen_mark_delay")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           v.GetInt("port"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		Env:            v.GetString("app_env"),
		RestaurantName: v.GetString("restaurant_name"),
		Backend: BackendConfig{
			URL:     strings.TrimRight(v.GetString("backend_url"), "/"),
			Token:   v.GetString("backend_token"),
			Timeout: backendTimeout,
		},
		Live: LiveConfig{
			PollInterval:  pollInterval,
			SeenMarkDelay: markDelay,
			SoundEnabled:  v.GetBool("sound_enabled"),
		},
		DB: DBConfig{
			Enabled:  v.GetBool("db_enabled"),
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		Kafka: KafkaConfig{
			Enabled:       v.GetBool("kafka_enabled"),
			Brokers:       splitList(v.GetString("kafka_brokers")),
			AlertsTopic:   v.GetString("kafka_alerts_topic"),
			ActionsTopic:  v.GetString("kafka_actions_topic"),
			OrdersTopic:   v.GetString("kafka_orders_topic"),
			ConsumerGroup: v.GetString("kafka_consumer_group"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail late
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_URL: %q", c.Backend.URL)
	}

	if c.Live.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Live.PollInterval)
	}

	if c.Live.SeenMarkDelay < 0 {
		return fmt.Errorf("SEEN_MARK_DELAY must not be negative, got %s", c.Live.SeenMarkDelay)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}

	return nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err)
	}

	return d, nil
}

func splitList(raw string) []string {
	var out []string

	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
