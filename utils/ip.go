package utils

import (
	"strings"
)

// IPBlock truncates an address to its routing-prefix block: first 3 octets
// for IPv4, first 4 colon groups for IPv6. Groups requests from one network
// neighborhood without tracking individual addresses long-term.
func IPBlock(ip string) string {
	if ip == "" {
		return "unknown"
	}

	if strings.Contains(ip, ":") {
		groups := strings.Split(ip, ":")
		if len(groups) > 4 {
			groups = groups[:4]
		}
		return strings.Join(groups, ":")
	}

	octets := strings.Split(ip, ".")
	if len(octets) > 3 {
		octets = octets[:3]
	}
	return strings.Join(octets, ".")
}
