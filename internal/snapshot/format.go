package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// unitSuffixes maps cloud unit codes to display suffixes. Units the API
// sends as ready-to-print literals ("%", "°C") pass through unchanged.
var unitSuffixes = map[string]string{
	"unit.percent":             "%",
	"unit.temperature.celsius": "°C",
	"unit.temperature.kelvin":  " K",
	"unit.ppm":                 " ppm",
	"unit.ampere":              " A",
	"unit.volt":                " V",
	"unit.watt":                " W",
	"unit.illumination.lux":    " lx",
	"unit.pressure.mmhg":       " mmHg",
	"unit.density.mcg_m3":      " µg/m³",
}

// instanceSuffixes backs up sensors that report no unit at all.
var instanceSuffixes = map[string]string{
	"humidity":      "%",
	"temperature":   "°C",
	"battery_level": "%",
}

// IsToggleable reports whether the device exposes an on_off capability.
func IsToggleable(d *Device) bool {
	return d.OnOffCapability() != nil
}

// IsDeviceOn derives the on/off display state. Devices with an on_off
// capability report its value. Hubs, speakers and "other" devices without
// one render as always-on, matching long-standing product behavior for
// devices that are powered whenever they are reachable.
func IsDeviceOn(d *Device) bool {
	if c := d.OnOffCapability(); c != nil {
		if c.State == nil {
			return false
		}
		on, ok := c.State.Value.(bool)
		return ok && on
	}
	t := strings.ToLower(d.Type)
	return strings.Contains(t, "hub") || strings.Contains(t, "speaker") || strings.Contains(t, "other")
}

// SensorText returns the formatted reading of the device's first sensor
// property with a known instance and a current value, or "" if the device
// has none.
func SensorText(d *Device) string {
	for i := range d.Properties {
		p := &d.Properties[i]
		if p.Instance == "" || p.State == nil || p.State.Value == nil {
			continue
		}
		if text := FormatPropertyValue(p); text != "" {
			return text
		}
	}
	return ""
}

// FormatPropertyValue renders a property state for display. Event values
// go through the property's value-to-name table; float values get a
// localized unit suffix.
func FormatPropertyValue(p *Property) string {
	if p.State == nil || p.State.Value == nil {
		return ""
	}

	if p.Type == PropEvent {
		raw := fmt.Sprintf("%v", p.State.Value)
		for _, ev := range p.Events {
			if ev.Value == raw {
				if ev.Name != "" {
					return ev.Name
				}
				return ev.Value
			}
		}
		return raw
	}

	value := formatScalar(p.State.Value)
	if value == "" {
		return ""
	}
	return value + unitSuffix(p)
}

func unitSuffix(p *Property) string {
	unit := p.Unit
	if unit == "" && p.State != nil {
		unit = p.State.Unit
	}
	if unit != "" {
		if suffix, ok := unitSuffixes[unit]; ok {
			return suffix
		}
		return unit
	}
	return instanceSuffixes[p.Instance]
}

func formatScalar(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case string:
		return n
	case bool:
		if n {
			return "on"
		}
		return "off"
	default:
		return fmt.Sprintf("%v", v)
	}
}
