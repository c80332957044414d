package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-api/api"
)

type config struct {
	listenAddr   string
	debug        bool
	maxBodyBytes int64
	redisConn    string
	notify       api.NotifierConfig
}

// loadConfig reads settings from the environment through getenv.
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		listenAddr: ":8080",
		redisConn:  strings.TrimSpace(getenv("REDIS_CONNECTION_STRING")),
		notify: api.NotifierConfig{
			Channel:        "todo-events",
			Workers:        4,
			Buffer:         256,
			PublishTimeout: 5 * time.Second,
			HandoffTimeout: 15 * time.Millisecond,
		},
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.listenAddr = ":" + v
	}
	if v := getenv("DEBUG"); v != "" {
		dbg, err := strconv.ParseBool(v)
		if err != nil {
			return config{}, fmt.Errorf("invalid DEBUG: %w", err)
		}
		cfg.debug = dbg
	}
	if v := getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return config{}, fmt.Errorf("invalid MAX_BODY_BYTES %q: must be greater than zero", v)
		}
		cfg.maxBodyBytes = n
	}
	if v := getenv("TODO_EVENTS_CHANNEL"); v != "" {
		cfg.notify.Channel = v
	}

	var err error
	if cfg.notify.Workers, err = envInt(getenv, "NOTIFY_WORKERS", cfg.notify.Workers); err != nil {
		return config{}, err
	}
	if cfg.notify.Buffer, err = envInt(getenv, "NOTIFY_BUFFER", cfg.notify.Buffer); err != nil {
		return config{}, err
	}
	if cfg.notify.PublishTimeout, err = envDur(getenv, "NOTIFY_TIMEOUT", cfg.notify.PublishTimeout); err != nil {
		return config{}, err
	}
	if cfg.notify.HandoffTimeout, err = envDur(getenv, "NOTIFY_HANDOFF_TIMEOUT", cfg.notify.HandoffTimeout); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func envInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func envDur(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

// redisOptions accepts a redis:// URL or the "host:port,password=...,ssl=true"
// form used by hosted Redis connection strings.
func redisOptions(conn string) (*redis.Options, error) {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	addr := strings.TrimSpace(parts[0])
	if addr == "" || strings.Contains(addr, "=") {
		return nil, errors.New("invalid redis connection string")
	}
	opts := &redis.Options{Addr: addr}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts, nil
}
