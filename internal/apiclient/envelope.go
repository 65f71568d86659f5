package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeData decodes raw into out, unwrapping an ApiResponse envelope
// ({"success":..,"data":..}) when raw is one.
func DecodeData(raw []byte, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		_, hasSuccess := fields["success"]
		data, hasData := fields["data"]
		if hasSuccess && hasData {
			raw = data
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
