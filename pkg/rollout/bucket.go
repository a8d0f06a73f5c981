package rollout

import "unicode/utf16"

// Buckets is the number of rollout buckets; Bucket returns values in [0, Buckets).
const Buckets = 100

// Bucket maps a session identifier to a stable bucket in [0,100).
//
// The hash is the 32-bit rolling polynomial h = h*31 + unit over the UTF-16 code
// units of the string, wrapping as a signed 32-bit integer at every step. The result
// must stay bit-for-bit compatible with other implementations of the same rollout,
// otherwise sessions silently move across the rollout boundary.
func Bucket(sessionID string) int {
	var h int32
	for _, unit := range utf16.Encode([]rune(sessionID)) {
		h = h*31 + int32(unit)
	}
	// abs in 64 bits so that MinInt32 stays positive
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % Buckets)
}

// InRollout reports whether the session falls inside a rollout of the given percentage.
func InRollout(sessionID string, percentage int) bool {
	percentage = ClampPercentage(percentage)
	if percentage >= 100 {
		return true
	}
	return Bucket(sessionID) < percentage
}

// ClampPercentage bounds a rollout percentage to [0,100].
func ClampPercentage(p int) int {
	return min(max(p, 0), 100)
}
