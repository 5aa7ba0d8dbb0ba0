package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sim":
		return simTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const simTemplate = `[bridge]
beat_bytes = 32
segment_bytes = 8
fifo_depth = 8
almost_full = 6
strict_mode = false
abort_on_disable = true

[run]
ticks = 10000
seed = 1
sink_ready_duty = 1.0
sink_period = 0
source_valid_duty = 1.0
min_frame_beats = 1
max_frame_beats = 8
hole_ratio = 0.0
zero_ratio = 0.0
disable_at = []
enable_at = []
metrics_addr = ""
trace_in = ""
trace_out = ""
`
