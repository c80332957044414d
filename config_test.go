package main

import (
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(envMap(nil))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.listenAddr != ":8080" {
		t.Fatalf("unexpected listen addr %q", cfg.listenAddr)
	}
	if cfg.debug || cfg.redisConn != "" || cfg.maxBodyBytes != 0 {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.notify.Channel != "todo-events" || cfg.notify.Workers != 4 || cfg.notify.Buffer != 256 {
		t.Fatalf("unexpected notifier defaults %#v", cfg.notify)
	}
	if cfg.notify.PublishTimeout != 5*time.Second || cfg.notify.HandoffTimeout != 15*time.Millisecond {
		t.Fatalf("unexpected notifier timeouts %#v", cfg.notify)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(envMap(map[string]string{
		"PORT":                    "9090",
		"DEBUG":                   "true",
		"MAX_BODY_BYTES":          "1024",
		"REDIS_CONNECTION_STRING": " redis://localhost:6379/0 ",
		"TODO_EVENTS_CHANNEL":     "changes",
		"NOTIFY_WORKERS":          "2",
		"NOTIFY_BUFFER":           "0",
		"NOTIFY_TIMEOUT":          "1s",
		"NOTIFY_HANDOFF_TIMEOUT":  "0s",
	}))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.listenAddr != ":9090" || !cfg.debug || cfg.maxBodyBytes != 1024 {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.redisConn != "redis://localhost:6379/0" {
		t.Fatalf("unexpected redis conn %q", cfg.redisConn)
	}
	want := cfg.notify
	if want.Channel != "changes" || want.Workers != 2 || want.Buffer != 0 || want.PublishTimeout != time.Second || want.HandoffTimeout != 0 {
		t.Fatalf("unexpected notifier config %#v", want)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]string{
		"PORT":                   "http",
		"DEBUG":                  "maybe",
		"MAX_BODY_BYTES":         "0",
		"NOTIFY_WORKERS":         "-1",
		"NOTIFY_BUFFER":          "many",
		"NOTIFY_TIMEOUT":         "soon",
		"NOTIFY_HANDOFF_TIMEOUT": "-1s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			if _, err := loadConfig(envMap(map[string]string{key: value})); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("redis://:secret@cache:6380/2")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected url options %#v", opts)
	}

	opts, err = redisOptions("cache.example.net:6380,password=pw=,ssl=True,abortConnect=False")
	if err != nil {
		t.Fatalf("parse connection string: %v", err)
	}
	if opts.Addr != "cache.example.net:6380" || opts.Password != "pw=" || opts.TLSConfig == nil {
		t.Fatalf("unexpected connection string options %#v", opts)
	}

	if _, err := redisOptions(",password=x"); err == nil {
		t.Fatalf("expected error for missing address")
	}
}
