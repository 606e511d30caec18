package policy

import (
	"fmt"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ParsePortSet parses a comma-separated list of ports and inclusive port
// ranges, e.g. "80,8000-8080". Port zero and inverted ranges are rejected.
func ParsePortSet(s string) (mapset.Set[uint16], error) {
	ports := mapset.NewSet[uint16]()
	if strings.TrimSpace(s) == "" {
		return ports, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, found := strings.Cut(part, "-")
		start, err := parsePort(lo)
		if err != nil {
			return nil, err
		}
		end := start
		if found {
			end, err = parsePort(hi)
			if err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("port range %q is inverted", part)
			}
		}
		for p := uint32(start); p <= uint32(end); p++ {
			ports.Add(uint16(p))
		}
	}
	return ports, nil
}

func parsePort(s string) (uint16, error) {
	p, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if p == 0 {
		return 0, fmt.Errorf("port 0 is not a valid port")
	}
	return uint16(p), nil
}
