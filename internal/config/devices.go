package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"homepulse/internal/models"
)

// FileSource reads the device list from disk on every call so edits apply
// on the next tick. JSON files parse as YAML.
type FileSource struct {
	Path string
}

func (s FileSource) Devices(context.Context) ([]models.Device, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read devices: %w", err)
	}
	devices, err := ParseDevices(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return devices, nil
}

// StaticSource serves devices declared inline in the config file.
type StaticSource []models.Device

func (s StaticSource) Devices(context.Context) ([]models.Device, error) {
	out := make([]models.Device, len(s))
	copy(out, s)
	return withNames(out), nil
}

// ParseDevices accepts either a top-level list or a mapping with a
// devices key.
func ParseDevices(content []byte) ([]models.Device, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	var devices []models.Device
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&devices); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var wrapper struct {
			Devices []models.Device `yaml:"devices"`
		}
		if err := root.Decode(&wrapper); err != nil {
			return nil, err
		}
		devices = wrapper.Devices
	default:
		return nil, fmt.Errorf("expected a device list, got %s", nodeKind(root.Kind))
	}

	if problems := deviceProblems(devices); len(problems) > 0 {
		return nil, fmt.Errorf("invalid devices: %s", strings.Join(problems, "; "))
	}
	return withNames(devices), nil
}

// DeviceLister yields the current device list.
type DeviceLister interface {
	Devices(ctx context.Context) ([]models.Device, error)
}

// DeviceSource picks where devices come from: an explicit path, inline
// devices, or the default devices file.
func (c Config) DeviceSource() DeviceLister {
	switch {
	case c.DevicesPath != "":
		return FileSource{Path: c.DevicesPath}
	case len(c.Devices) > 0:
		return StaticSource(c.Devices)
	default:
		return FileSource{Path: DefaultDevicesPath}
	}
}

func withNames(devices []models.Device) []models.Device {
	for i := range devices {
		if devices[i].Name == "" {
			devices[i].Name = devices[i].ID
		}
	}
	return devices
}

func nodeKind(kind yaml.Kind) string {
	switch kind {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unsupported node"
	}
}
