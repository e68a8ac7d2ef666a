package hypergate

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// The federation's replies are flat string-keyed maps whose values are
// strings, whatever they represent. These helpers interpret them
// defensively: anything unparseable keeps the caller's default.

func wireBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}

func wireUint32(raw string, def uint32) uint32 {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return def
	}
	return uint32(v)
}

func wireUint64(raw string, def uint64) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return def
	}
	return v
}

func wireInt(raw string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func wireUUID(raw string, def uuid.UUID) uuid.UUID {
	v, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}
