package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
# comment
restaurant:
  id: "dosa_cafe"
  tables: 20

http:
  port: 8080

storage:
  driver: redis
  ttl_hours: 12

orderlog:
  driver: rabbitmq

redis:
  host: redis.local
  port: 6380

rabbitmq:
  host: mq.local
  user: menu
  password: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Restaurant.ID != "dosa_cafe" || cfg.Restaurant.Tables != 20 {
		t.Fatalf("restaurant = %+v", cfg.Restaurant)
	}
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != "redis" || cfg.Storage.TTLHours != 12 {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Redis.Host != "redis.local" || cfg.Redis.Port != 6380 {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.Rabbit.Host != "mq.local" || cfg.Rabbit.VHost != "/" {
		t.Fatalf("rabbit = %+v", cfg.Rabbit)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "restaurant:\n  id: r1\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "memory" || cfg.OrderLog.Driver != "memory" {
		t.Fatalf("driver defaults = %+v / %+v", cfg.Storage, cfg.OrderLog)
	}
	if cfg.HTTP.Port != 3000 || cfg.Restaurant.Tables != 30 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadRejectsIncompleteDriverConfig(t *testing.T) {
	_, err := Load(writeConfig(t, `
orderlog:
  driver: rabbitmq
`))
	if err == nil {
		t.Fatalf("rabbitmq driver without host accepted")
	}

	_, err = Load(writeConfig(t, `
storage:
  driver: redis
`))
	if err == nil {
		t.Fatalf("redis driver without host accepted")
	}
}
