package config

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

type Restaurant struct {
	ID     string
	Tables int // highest selectable table number shown by the UI
}

type HTTP struct {
	Port int
}

type Storage struct {
	Driver   string // memory | redis
	TTLHours int
}

type OrderLog struct {
	Driver string // memory | rabbitmq | postgres
}

type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

type Redis struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type RabbitMQ struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type App struct {
	Restaurant Restaurant
	HTTP       HTTP
	Storage    Storage
	OrderLog   OrderLog
	Database   Database
	Redis      Redis
	Rabbit     RabbitMQ
}

// Load reads the two-level YAML config. The format is deliberately
// simple (sections of key: value pairs), parsed without external
// packages.
func Load(path string) (App, error) {
	f, err := os.Open(path)
	if err != nil {
		return App{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	a := defaults()
	var section string

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			section = strings.TrimSuffix(line, ":")
			continue
		}
		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `"'`)

		switch section {
		case "restaurant":
			switch key {
			case "id":
				a.Restaurant.ID = val
			case "tables":
				a.Restaurant.Tables = atoi(val, a.Restaurant.Tables)
			}
		case "http":
			if key == "port" {
				a.HTTP.Port = atoi(val, a.HTTP.Port)
			}
		case "storage":
			switch key {
			case "driver":
				a.Storage.Driver = val
			case "ttl_hours":
				a.Storage.TTLHours = atoi(val, a.Storage.TTLHours)
			}
		case "orderlog":
			if key == "driver" {
				a.OrderLog.Driver = val
			}
		case "database":
			switch key {
			case "host":
				a.Database.Host = val
			case "port":
				a.Database.Port = atoi(val, 5432)
			case "user":
				a.Database.User = val
			case "password":
				a.Database.Password = val
			case "database":
				a.Database.Database = val
			case "sslmode":
				if val != "" {
					a.Database.SSLMode = val
				}
			case "max_conns":
				a.Database.MaxConns = atoi(val, 10)
			}
		case "redis":
			switch key {
			case "host":
				a.Redis.Host = val
			case "port":
				a.Redis.Port = atoi(val, 6379)
			case "password":
				a.Redis.Password = val
			case "db":
				a.Redis.DB = atoi(val, 0)
			}
		case "rabbitmq":
			switch key {
			case "host":
				a.Rabbit.Host = val
			case "port":
				a.Rabbit.Port = atoi(val, 5672)
			case "user":
				a.Rabbit.User = val
			case "password":
				a.Rabbit.Password = val
			case "vhost":
				if val != "" {
					a.Rabbit.VHost = val
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return App{}, fmt.Errorf("read config: %w", err)
	}

	if err := validate(a); err != nil {
		return App{}, err
	}
	return a, nil
}

func defaults() App {
	return App{
		Restaurant: Restaurant{ID: "restaurant_1", Tables: 30},
		HTTP:       HTTP{Port: 3000},
		Storage:    Storage{Driver: "memory", TTLHours: 24},
		OrderLog:   OrderLog{Driver: "memory"},
		Database:   Database{Port: 5432, SSLMode: "disable", MaxConns: 10},
		Redis:      Redis{Port: 6379},
		Rabbit:     RabbitMQ{Port: 5672, VHost: "/"},
	}
}

func validate(a App) error {
	if a.Restaurant.ID == "" {
		return fmt.Errorf("restaurant config incomplete: id is required")
	}
	if a.Storage.Driver == "redis" && a.Redis.Host == "" {
		return fmt.Errorf("redis config incomplete: host is required for storage driver %q", a.Storage.Driver)
	}
	switch a.OrderLog.Driver {
	case "rabbitmq":
		if a.Rabbit.Host == "" || a.Rabbit.User == "" {
			return fmt.Errorf("rabbitmq config incomplete")
		}
	case "postgres":
		if a.Database.Host == "" || a.Database.User == "" || a.Database.Database == "" {
			return fmt.Errorf("database config incomplete")
		}
	}
	return nil
}

// FindConfig probes the usual config locations.
func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "config.yml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
