package utils

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeFrame parses a streamed data-frame payload into T. Providers
// interleave keep-alive and control frames with real deltas, and proxies
// occasionally truncate or mangle individual frames, so decoding is lenient:
// a strict json.Unmarshal is tried first, then one repair pass with
// jsonrepair. When both fail the frame is reported as undecodable (ok ==
// false) and the caller skips it rather than failing the whole stream.
func DecodeFrame[T any](payload string) (T, bool) {
	var frame T

	if err := json.Unmarshal([]byte(payload), &frame); err == nil {
		return frame, true
	}

	repaired, repairErr := jsonrepair.JSONRepair(payload)
	if repairErr != nil {
		return frame, false
	}

	var repairedFrame T
	if err := json.Unmarshal([]byte(repaired), &repairedFrame); err != nil {
		return frame, false
	}
	return repairedFrame, true
}
