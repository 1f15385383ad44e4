package cipher

import (
	"encoding/json"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with details",
			err: &Error{
				Code:    ErrCodeExtractionFailed,
				Message: "compile signature function",
				Details: map[string]any{"fn": "dz"},
			},
			expected: "EXTRACTION_FAILED: compile signature function (map[fn:dz])",
		},
		{
			name: "error without details",
			err: &Error{
				Code:    ErrCodePlayerJSNotFound,
				Message: "player script not found",
			},
			expected: "PLAYER_JS_NOT_FOUND: player script not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_MarshalJSON(t *testing.T) {
	err := &Error{
		Code:    ErrCodeExtractionFailed,
		Message: "compile signature function",
		Details: map[string]any{
			"fn":       "dz",
			"patterns": []string{"call-site", "structural"},
		},
	}

	data, err2 := json.Marshal(err)
	if err2 != nil {
		t.Fatalf("Failed to marshal error: %v", err2)
	}

	var result map[string]any
	if err2 := json.Unmarshal(data, &result); err2 != nil {
		t.Fatalf("Failed to unmarshal error: %v", err2)
	}

	if code, ok := result["code"].(string); !ok || code != ErrCodeExtractionFailed {
		t.Errorf("Wrong code in JSON: %v", result["code"])
	}
	if msg, ok := result["message"].(string); !ok || msg != "compile signature function" {
		t.Errorf("Wrong message in JSON: %v", result["message"])
	}
	if errStr, ok := result["error"].(string); !ok || errStr != err.Error() {
		t.Errorf("Wrong error string in JSON: %v", result["error"])
	}

	details, ok := result["details"].(map[string]any)
	if !ok {
		t.Fatal("Details missing or wrong type")
	}
	if fn, ok := details["fn"].(string); !ok || fn != "dz" {
		t.Errorf("Wrong fn in details: %v", details["fn"])
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		isTO  bool
		isNF  bool
		isInv bool
		isExt bool
		isDL  bool
	}{
		{
			name: "timeout error",
			err:  NewError(ErrCodeSignatureTimeout, "Timeout"),
			isTO: true,
		},
		{
			name: "not found error (player script)",
			err:  NewError(ErrCodePlayerJSNotFound, "Not found"),
			isNF: true,
		},
		{
			name: "not found error (signature fn)",
			err:  NewError(ErrCodeSignatureNotFound, "Not found"),
			isNF: true,
		},
		{
			name: "not found error (throttle fn)",
			err:  NewError(ErrCodeThrottleNotFound, "Not found"),
			isNF: true,
		},
		{
			name:  "invalid error",
			err:   NewError(ErrCodeSignatureInvalid, "Invalid"),
			isInv: true,
		},
		{
			name:  "extraction error",
			err:   NewError(ErrCodeExtractionFailed, "Extraction failed"),
			isExt: true,
		},
		{
			name: "download error",
			err:  NewError(ErrCodePlayerJSDownload, "Download failed"),
			isDL: true,
		},
		{
			name: "non-Error type",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeout(tt.err); got != tt.isTO {
				t.Errorf("IsTimeout() = %v, want %v", got, tt.isTO)
			}
			if got := IsNotFound(tt.err); got != tt.isNF {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.isNF)
			}
			if got := IsInvalid(tt.err); got != tt.isInv {
				t.Errorf("IsInvalid() = %v, want %v", got, tt.isInv)
			}
			if got := IsExtraction(tt.err); got != tt.isExt {
				t.Errorf("IsExtraction() = %v, want %v", got, tt.isExt)
			}
			if got := IsDownload(tt.err); got != tt.isDL {
				t.Errorf("IsDownload() = %v, want %v", got, tt.isDL)
			}
		})
	}
}
