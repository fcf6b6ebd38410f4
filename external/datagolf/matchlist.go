package datagolf

import (
	"bytes"
	"encoding/json"

	sonic "github.com/bytedance/sonic"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
)

// NormalizeMatchList turns a feed's raw match_list value into a concrete
// slice, defending against the three shapes the provider substitutes for
// an array: an absent field, a human-readable error string, and any other
// non-array value. Absence of data is always a valid empty result; this
// function never fails.
func NormalizeMatchList(raw json.RawMessage, label string, logger *logging.Logger) []RawMatchup {
	if logger == nil {
		logger = logging.Default()
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		logger.Info("match list absent", "feed", label)
		return []RawMatchup{}
	}

	if trimmed[0] == '"' {
		var message string
		if err := sonic.Unmarshal(trimmed, &message); err == nil {
			logger.Info("provider posted message instead of match list", "feed", label, "message", message)
		}
		return []RawMatchup{}
	}

	if trimmed[0] != '[' {
		logger.Warn("match list has unexpected shape", "feed", label, "got", previewJSON(trimmed))
		return []RawMatchup{}
	}

	var matchups []RawMatchup
	if err := sonic.Unmarshal(trimmed, &matchups); err != nil {
		logger.Warn("match list elements failed to decode", "feed", label, "error", err)
		return []RawMatchup{}
	}
	return matchups
}

func previewJSON(raw []byte) string {
	const maxPreview = 64
	if len(raw) <= maxPreview {
		return string(raw)
	}
	return string(raw[:maxPreview]) + "..."
}
