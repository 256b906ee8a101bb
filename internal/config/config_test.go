package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.AWSRegion != "us-east-1" || cfg.OrdersTable != "orders" || cfg.StoreBackend != BackendDynamoDB {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("unexpected ttl %v", cfg.IdempotencyTTL)
	}
	if !reflect.DeepEqual(cfg.Notifiers, []string{"sqs"}) {
		t.Fatalf("unexpected notifiers %v", cfg.Notifiers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ORDERS_TABLE", "prod-orders")
	t.Setenv("NOTIFIERS", "sqs, Kafka")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("IDEMPOTENCY_TTL", "2h")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.OrdersTable != "prod-orders" {
		t.Fatalf("env override ignored: %s", cfg.OrdersTable)
	}
	if !reflect.DeepEqual(cfg.Notifiers, []string{"sqs", "kafka"}) {
		t.Fatalf("unexpected notifiers %v", cfg.Notifiers)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"b1:9092", "b2:9092"}) {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.IdempotencyTTL != 2*time.Hour || !cfg.MetricsEnabled {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.NotifierEnabled(NotifierKafka) || cfg.NotifierEnabled(NotifierRabbitMQ) {
		t.Fatal("NotifierEnabled mismatch")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "store_backend: postgres\npostgres_dsn: postgres://u:p@localhost:5432/orders\nmenu_table: menu-test\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.StoreBackend != BackendPostgres || cfg.MenuTable != "menu-test" {
		t.Fatalf("file values ignored: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := Config{StoreBackend: BackendDynamoDB, Notifiers: []string{"sqs"}, IdempotencyTTL: time.Hour}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.StoreBackend = BackendPostgres }},
		{"unknown notifier", func(c *Config) { c.Notifiers = []string{"websocket"} }},
		{"kafka without brokers", func(c *Config) { c.Notifiers = []string{"kafka"} }},
		{"zero ttl", func(c *Config) { c.IdempotencyTTL = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}
}
