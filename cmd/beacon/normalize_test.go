package main

import (
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/beacon/pkg/config"
	"mercator-hq/beacon/pkg/event"
	"mercator-hq/beacon/pkg/telemetry/logging"
)

const crashPayload = `{
	"name": "Error",
	"message": "checkout failed",
	"cause": {
		"name": "java.io.IOException",
		"message": "disk full",
		"stackElements": [
			{"className": "com.example.Store", "fileName": "Store.java", "methodName": "write", "lineNumber": 42}
		]
	}
}`

func TestNormalizeCommand_JSON(t *testing.T) {
	path := writeFile(t, "crash.json", crashPayload)

	out, err := executeCommand(t, "normalize", path, "-o", "json")
	if err != nil {
		t.Fatalf("normalize: %v\n%s", err, out)
	}

	var summary event.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(summary.Records) != 2 {
		t.Fatalf("expected 2 records, got %+v", summary.Records)
	}
	cause, top := summary.Records[0], summary.Records[1]
	if cause.Type != "java.io.IOException" || cause.Value != "disk full" || cause.Top != "write (Store.java:42)" {
		t.Errorf("unexpected cause %+v", cause)
	}
	if top.Type != "Error" || top.Value != "checkout failed" {
		t.Errorf("unexpected top-level record %+v", top)
	}
}

func TestNormalizeCommand_Text(t *testing.T) {
	path := writeFile(t, "crash.json", crashPayload)

	out, err := executeCommand(t, "normalize", path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for _, want := range []string{"TYPE", "java.io.IOException", "checkout failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNormalizeCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{
			name: "missing file",
			args: func(t *testing.T) []string { return []string{"normalize", "/does/not/exist.json"} },
		},
		{
			name: "not an object",
			args: func(t *testing.T) []string { return []string{"normalize", writeFile(t, "list.json", `[1, 2]`)} },
		},
		{
			name: "bad output format",
			args: func(t *testing.T) []string {
				return []string{"normalize", writeFile(t, "crash.json", crashPayload), "-o", "csv"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(t, tt.args(t)...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestNormalizePayload(t *testing.T) {
	yamlPayload := `
name: Error
message: checkout failed
cause:
  name: java.io.IOException
  message: disk full
  underlying:
    name: java.lang.IllegalStateException
    message: closed
  stackElements:
    - className: com.example.Store
      methodName: write
      lineNumber: -1
`

	tests := []struct {
		name  string
		chain config.ErrorChainConfig
		types []string
	}{
		{
			name:  "default key",
			chain: config.ErrorChainConfig{Key: "cause", Limit: 5},
			types: []string{"java.io.IOException", "Error"},
		},
		{
			name:  "limit counts the top-level record",
			chain: config.ErrorChainConfig{Key: "cause", Limit: 1},
			types: []string{"Error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := normalizePayload([]byte(yamlPayload), event.FormatYAML, tt.chain, logging.Discard())
			if err != nil {
				t.Fatalf("normalizePayload: %v", err)
			}
			var types []string
			for _, r := range summary.Records {
				types = append(types, r.Type)
			}
			if strings.Join(types, ",") != strings.Join(tt.types, ",") {
				t.Errorf("types = %v, want %v", types, tt.types)
			}
		})
	}
}
