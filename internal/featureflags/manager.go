// Package featureflags evaluates runtime feature toggles from the
// FEATURE_FLAGS config value.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Manager holds parsed flags from a comma-separated key=value list.
// Example: "realtime_post_sync=on,mood_insights=25%,legacy_feed=off"
type Manager struct {
	flags map[string]string
}

// NewManager parses the raw config string. Malformed pairs are skipped
// rather than rejected, so a typo disables one flag instead of all of them.
func NewManager(raw string) *Manager {
	flags := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		name := normalize(kv[0])
		value := normalize(kv[1])
		if name == "" || value == "" {
			continue
		}
		flags[name] = value
	}

	return &Manager{flags: flags}
}

// Enabled reports whether a flag is on for the given user. Values are
// on/true/1, off/false/0, or N% for a deterministic per-user rollout.
// Unknown flags and a nil Manager evaluate to off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if pctRaw, isPct := strings.CutSuffix(value, "%"); isPct {
		pct, err := strconv.Atoi(pctRaw)
		if err != nil || pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		// Anonymous traffic never lands in a partial rollout.
		if userID == 0 {
			return false
		}
		return rolloutBucket(name, userID) < pct
	}

	return false
}

// Raw returns a copy of the configured flag values.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for name, value := range m.flags {
		out[name] = value
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// rolloutBucket maps (flag, user) to a stable bucket in [0,100). The same
// user always lands in the same bucket for a given flag, so a 25% rollout
// is sticky rather than per-request random.
func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
