package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultPowerSupplyRoot is where Linux exposes power supply class devices.
const DefaultPowerSupplyRoot = "/sys/class/power_supply"

// SysfsBattery reads the battery voltage from the Linux power supply class.
type SysfsBattery struct {
	path string
}

// NewSysfsBattery locates the voltage_now attribute of supply under root.
// An empty supply selects the first device whose type is "Battery".
func NewSysfsBattery(root, supply string) (*SysfsBattery, error) {
	if root == "" {
		root = DefaultPowerSupplyRoot
	}

	if supply == "" {
		found, err := findBattery(root)
		if err != nil {
			return nil, err
		}
		supply = found
	}

	path := filepath.Join(root, supply, "voltage_now")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBattery, err)
	}
	return &SysfsBattery{path: path}, nil
}

// MilliVolts implements Battery. The attribute is in microvolts.
func (b *SysfsBattery) MilliVolts() (uint32, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	uv, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", b.path, err)
	}
	return uint32(uv / 1000), nil
}

func findBattery(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoBattery, err)
	}
	for _, e := range entries {
		kind, err := os.ReadFile(filepath.Join(root, e.Name(), "type"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(kind)) == "Battery" {
			return e.Name(), nil
		}
	}
	return "", ErrNoBattery
}
