package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type ReconcilerConfig struct {
	Env               string `yaml:"env" env:"RECONCILER_ENV" env-default:"local"`
	OrganizationID    string `yaml:"organization_id" env:"RECONCILER_ORGANIZATION_ID" env-default:"*"`
	DefaultCampaignID string `yaml:"default_campaign_id" env:"RECONCILER_DEFAULT_CAMPAIGN_ID"`
	HTTPServer        `yaml:"http_server"`
	GRPCServer        `yaml:"grpc_server"`
	ReconcilerDB      `yaml:"reconciler_db"`
	LogConfig         `yaml:"log_config"`
	KafkaService      `yaml:"kafka_service"`
	Workers           `yaml:"workers"`
	Stripe            `yaml:"stripe"`
	MetadataKeys      `yaml:"metadata_keys"`
	CRMs              []CRMConfig `yaml:"crms"`
}

type HTTPServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"RECONCILER_HTTP_PORT" env-default:"8080"`
}

type GRPCServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"RECONCILER_GRPC_PORT" env-default:"50051"`
}

type ReconcilerDB struct {
	Dsn            string `yaml:"dsn" env:"RECONCILER_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env-default:"migrations"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type KafkaService struct {
	Brokers      []string `yaml:"brokers" env:"RECONCILER_KAFKA_BROKERS" env-separator:","`
	EventsTopic  string   `yaml:"events_topic" env-default:"donation-events"`
	RepairsTopic string   `yaml:"repairs_topic" env-default:"crm-sync-requests"`
	GroupID      string   `yaml:"group_id" env-default:"crm-reconciler"`
}

// Enabled reports whether intake goes through kafka rather than straight to the pool.
func (k KafkaService) Enabled() bool {
	return len(k.Brokers) > 0
}

type Workers struct {
	Count           int           `yaml:"count" env-default:"8"`
	QueueSize       int           `yaml:"queue_size" env-default:"256"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"30s"`
	EventTimeout    time.Duration `yaml:"event_timeout" env-default:"2m"`
}

type Stripe struct {
	APIKey        string        `yaml:"api_key" env:"STRIPE_API_KEY"`
	WebhookSecret string        `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Timeout       time.Duration `yaml:"timeout" env-default:"20s"`
}

type MetadataKeys struct {
	Campaign []string `yaml:"campaign" env-default:"sf_campaign,Designation Code"`
	Account  []string `yaml:"account" env-default:"sf_account"`
	Contact  []string `yaml:"contact" env-default:"sf_contact"`
}

// CRMConfig describes one crm. Exactly one entry must be primary.
type CRMConfig struct {
	Name    string        `yaml:"name"`
	Primary bool          `yaml:"primary"`
	Kind    string        `yaml:"kind"` // ledger | http | memory
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout" env-default:"15s"`
	Mapping MappingConfig `yaml:"mapping"`
	// Campaigns seeds the campaign table of ledger and memory crms.
	Campaigns []CampaignConfig `yaml:"campaigns"`
}

type CampaignConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type MappingConfig struct {
	Strategy  string          `yaml:"strategy"` // sfdc | hubspot
	Pipeline  string          `yaml:"pipeline"`
	Stages    StagesConfig    `yaml:"stages"`
	Templates TemplatesConfig `yaml:"templates"`
}

type StagesConfig struct {
	Pledged         string `yaml:"pledged"`
	Posted          string `yaml:"posted"`
	FailedAttempt   string `yaml:"failed_attempt"`
	Refunded        string `yaml:"refunded"`
	RecurringOpen   string `yaml:"recurring_open"`
	RecurringClosed string `yaml:"recurring_closed"`
}

type TemplatesConfig struct {
	Account           string `yaml:"account"`
	Donation          string `yaml:"donation"`
	RecurringDonation string `yaml:"recurring_donation"`
}

const (
	CRMKindLedger = "ledger"
	CRMKindHTTP   = "http"
	CRMKindMemory = "memory"
)

func (c *ReconcilerConfig) Validate() error {
	primaries := 0
	names := make(map[string]bool)
	for _, crm := range c.CRMs {
		if crm.Name == "" {
			return fmt.Errorf("crm without a name")
		}
		if names[crm.Name] {
			return fmt.Errorf("duplicate crm name %q", crm.Name)
		}
		names[crm.Name] = true
		if crm.Primary {
			primaries++
		}
		switch crm.Kind {
		case CRMKindLedger, CRMKindMemory:
		case CRMKindHTTP:
			if crm.BaseURL == "" {
				return fmt.Errorf("crm %q: base_url is required for http crms", crm.Name)
			}
		default:
			return fmt.Errorf("crm %q: unknown kind %q", crm.Name, crm.Kind)
		}
	}
	if primaries != 1 {
		return fmt.Errorf("exactly one primary crm is required, got %d", primaries)
	}
	if c.Workers.Count <= 0 || c.Workers.QueueSize <= 0 {
		return fmt.Errorf("workers.count and workers.queue_size must be positive")
	}
	return nil
}

// Load reads and validates the YAML config at path, with env overrides.
func Load(path string) (*ReconcilerConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg ReconcilerConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *ReconcilerConfig {

	// Processing env config variable and file
	configPath := os.Getenv("RECONCILER_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("RECONCILER_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	return cfg
}
