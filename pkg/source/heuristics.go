package source

import (
	"sort"
	"strings"

	"github.com/jguan/nas-assistant/pkg/snapshot"
)

// tunnelUpMarkers are the log fragments that indicate an established
// OpenVPN tunnel.
var tunnelUpMarkers = []string{
	"initialization sequence completed",
	"connected",
	"tun/tap device opened",
}

// DetectTunnelUp reports whether logs contain any tunnel-up marker,
// case-insensitively.
//
// False negatives: when the tunnel came up more than the inspected window
// of lines ago, or when the VPN client logs in another language or format,
// no marker is found. False positives: "connected" also matches lines like
// "disconnected" or "not connected".
func DetectTunnelUp(logs string) bool {
	lower := strings.ToLower(logs)
	for _, m := range tunnelUpMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// FindCPUTemperature scans series keys in sorted order for the first key
// containing both "temp" and "cpu" (case-insensitive) and returns the value
// of its first dimension, by name, that has a reading.
//
// False negatives: sensors exposed under other names (e.g.
// "sensors.coretemp-isa-0000_temperature" or "k10temp") are missed, since
// they do not mention "cpu". No match yields an unknown temperature.
func FindCPUTemperature(series map[string]netdataSeries) snapshot.Temperature {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		lk := strings.ToLower(k)
		if !strings.Contains(lk, "temp") || !strings.Contains(lk, "cpu") {
			continue
		}
		dims := series[k].Dimensions
		names := make([]string, 0, len(dims))
		for name := range dims {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if v := dims[name].Value; v != nil {
				return snapshot.Temperature{Celsius: snapshot.Round1(*v), Known: true}
			}
		}
		return snapshot.Temperature{}
	}
	return snapshot.Temperature{}
}
