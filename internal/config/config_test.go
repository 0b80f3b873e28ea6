package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"homepulse/internal/models"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CheckIntervalSec != 60 || cfg.DailySummaryHour != 9 || cfg.Listen != ":8787" || cfg.RetentionDays != 7 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestFileThenEnvironment(t *testing.T) {
	path := writeFile(t, "homepulse.yaml", `
check_interval_sec: 30
daily_summary_hour: 7
database_path: /var/lib/homepulse/db.sqlite
telegram:
  bot_token: file-token
  chat_id: "100"
devices:
  - id: nas
    name: NAS
    type: tcp
    host: 10.0.0.5
    port: 445
`)
	cfg, err := load(path, env(map[string]string{
		"CHECK_INTERVAL_SEC": "15",
		"SEND_SUMMARY_NOW":   "true",
		"TELEGRAM_BOT_TOKEN": "env-token",
		"PORT":               "9090",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CheckIntervalSec != 15 || cfg.DailySummaryHour != 7 || !cfg.SendSummaryNow {
		t.Fatalf("scheduling fields %+v", cfg)
	}
	if cfg.Telegram.BotToken != "env-token" || cfg.Telegram.ChatID != "100" {
		t.Fatalf("telegram %+v", cfg.Telegram)
	}
	if cfg.Listen != ":9090" || cfg.DatabasePath != "/var/lib/homepulse/db.sqlite" {
		t.Fatalf("listen %q db %q", cfg.Listen, cfg.DatabasePath)
	}
	if len(cfg.Devices) != 1 || cfg.Devices[0].Port != 445 {
		t.Fatalf("devices %+v", cfg.Devices)
	}
}

func TestValidationCollectsProblems(t *testing.T) {
	path := writeFile(t, "bad.yaml", `
check_interval_sec: -1
daily_summary_hour: 25
email:
  api_key: key
  from: nobody
devices:
  - id: a
  - id: a
  - name: anonymous
`)
	_, err := load(path, env(nil))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"check_interval_sec",
		"daily_summary_hour",
		"email.from",
		"email.to",
		"duplicate device id: a",
		"device[2].id",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %q:\n%v", want, err)
		}
	}
}

func TestInvalidEnvironment(t *testing.T) {
	_, err := load("", env(map[string]string{"CHECK_INTERVAL_SEC": "soon", "PORT": "0"}))
	if err == nil || !strings.Contains(err.Error(), "CHECK_INTERVAL_SEC") || !strings.Contains(err.Error(), "PORT") {
		t.Fatalf("expected both problems, got %v", err)
	}
}

func TestParseDevicesFormats(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"json list", `[{"id":"router","name":"Router","type":"http","url":"http://10.0.0.1"},{"id":"nas","type":"tcp","host":"10.0.0.5","port":445,"timeoutMs":800}]`, 2},
		{"json object", `{"devices":[{"id":"router","type":"http","url":"http://10.0.0.1"}]}`, 1},
		{"yaml list", "- id: nas\n  type: tcp\n  host: 10.0.0.5\n  port: 445\n", 1},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := ParseDevices([]byte(tt.content))
			if err != nil {
				t.Fatal(err)
			}
			if len(devices) != tt.want {
				t.Fatalf("got %d devices, want %d", len(devices), tt.want)
			}
			for _, d := range devices {
				if d.Name == "" {
					t.Fatalf("name should default to id: %+v", d)
				}
			}
		})
	}

	if _, err := ParseDevices([]byte(`"router"`)); err == nil {
		t.Fatal("scalar document must be rejected")
	}
}

func TestFileSourceRereadsFile(t *testing.T) {
	path := writeFile(t, "devices.json", `[{"id":"router","type":"http","url":"http://10.0.0.1"}]`)
	src := Config{DevicesPath: path}.DeviceSource()

	devices, err := src.Devices(context.Background())
	if err != nil || len(devices) != 1 {
		t.Fatalf("first read: %v %v", devices, err)
	}

	if err := os.WriteFile(path, []byte(`[{"id":"router"},{"id":"nas","timeoutMs":500}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	devices, err = src.Devices(context.Background())
	if err != nil || len(devices) != 2 || devices[1].Timeout() != 500 {
		t.Fatalf("second read: %v %v", devices, err)
	}
}

func TestDeviceSourceSelection(t *testing.T) {
	if _, ok := (Config{DevicesPath: "x.json"}).DeviceSource().(FileSource); !ok {
		t.Fatal("explicit path should use the file source")
	}
	cfg := DefaultConfig()
	cfg.Devices = nil
	if src, ok := cfg.DeviceSource().(FileSource); !ok || src.Path != DefaultDevicesPath {
		t.Fatal("default should read devices.json")
	}
	cfg.Devices = []models.Device{{ID: "nas"}}
	devices, _ := cfg.DeviceSource().Devices(context.Background())
	if len(devices) != 1 || devices[0].Name != "nas" {
		t.Fatalf("inline devices %+v", devices)
	}
}
