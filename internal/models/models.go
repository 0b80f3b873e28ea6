package models

// Device types understood by the prober.
const (
	DeviceTypeHTTP = "http"
	DeviceTypeTCP  = "tcp"
)

// DefaultTimeoutMs applies when a device does not declare its own timeout.
const DefaultTimeoutMs = 1200

// Device defines a monitored endpoint. Devices come from configuration and
// are never persisted.
type Device struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Type      string `yaml:"type" json:"type"`
	URL       string `yaml:"url,omitempty" json:"url,omitempty"`
	Host      string `yaml:"host,omitempty" json:"host,omitempty"`
	Port      int    `yaml:"port,omitempty" json:"port,omitempty"`
	TimeoutMs int    `yaml:"timeoutMs,omitempty" json:"timeoutMs,omitempty"`
}

// Timeout returns the configured timeout in milliseconds, or the default.
func (d Device) Timeout() int {
	if d.TimeoutMs > 0 {
		return d.TimeoutMs
	}
	return DefaultTimeoutMs
}

// ProbeResult captures the outcome of a single probe. ResponseTimeMs is nil
// when no connection was completed.
type ProbeResult struct {
	OK             bool   `json:"ok"`
	Message        string `json:"message"`
	ResponseTimeMs *int64 `json:"response_time_ms"`
}

// DeviceState is the persisted current state of a device.
type DeviceState struct {
	ID           string `gorm:"primaryKey;column:id" json:"id"`
	Name         string `gorm:"column:name;not null" json:"name"`
	IsUp         bool   `gorm:"column:is_up;not null" json:"is_up"`
	LastChangeTs int64  `gorm:"column:last_change_ts;not null" json:"last_change_ts"`
	LastCheckTs  int64  `gorm:"column:last_check_ts;not null" json:"last_check_ts"`
	LastMessage  string `gorm:"column:last_message" json:"last_message"`
}

func (DeviceState) TableName() string { return "device_state" }

// Event types.
const (
	EventUp   = "UP"
	EventDown = "DOWN"
)

// Event records a single UP/DOWN flip. DeviceName is a snapshot taken when
// the event was written.
type Event struct {
	ID         int64  `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	DeviceID   string `gorm:"column:device_id;not null" json:"device_id"`
	DeviceName string `gorm:"column:device_name;not null" json:"device_name"`
	Type       string `gorm:"column:type;not null" json:"type"`
	Message    string `gorm:"column:message" json:"message"`
	Ts         int64  `gorm:"column:ts;not null" json:"ts"`
}

func (Event) TableName() string { return "events" }

// ResponseTimeSample is written once per probe regardless of outcome.
type ResponseTimeSample struct {
	ID             int64  `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	DeviceID       string `gorm:"column:device_id;not null" json:"-"`
	ResponseTimeMs *int64 `gorm:"column:response_time" json:"response_time"`
	IsUp           bool   `gorm:"column:is_up;not null" json:"is_up"`
	Ts             int64  `gorm:"column:ts;not null" json:"ts"`
}

func (ResponseTimeSample) TableName() string { return "response_times" }
