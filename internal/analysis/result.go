// Package analysis defines the remote analysis service's result model and
// the HTTP client that consumes it.
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Tool keys the remote service uses in Result.Issues.
const (
	ToolFlake8     = "flake8"
	ToolMypy       = "mypy"
	ToolCppcheck   = "cppcheck"
	ToolClang      = "clang"
	ToolConceptual = "conceptual_errors"
)

// Sentinel blobs meaning "nothing to report".
const (
	SentinelNoIssues = "no issues"
	SentinelNoOutput = "no output"
)

// runtimeSuccessMarker appears in a runtime transcript when sandboxed
// execution completed cleanly.
const runtimeSuccessMarker = "success"

// IsSentinelLine reports whether a single report line is a "nothing to
// report" marker rather than a finding.
func IsSentinelLine(line string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	if trimmed == "" {
		return true
	}
	return strings.Contains(trimmed, SentinelNoIssues) ||
		strings.Contains(trimmed, SentinelNoOutput)
}

// IsSentinel reports whether a tool or runtime blob carries no findings:
// every line must be empty or a sentinel marker. A blob mixing findings
// with a "no issues" banner or trailer still counts as findings.
func IsSentinel(blob string) bool {
	for _, line := range strings.Split(blob, "\n") {
		if !IsSentinelLine(line) {
			return false
		}
	}
	return true
}

// RuntimeFailed reports whether the runtime transcript describes a failed
// execution worth surfacing as a diagnostic.
func RuntimeFailed(transcript string) bool {
	if IsSentinel(transcript) {
		return false
	}
	return !strings.Contains(strings.ToLower(transcript), runtimeSuccessMarker)
}

// Result is the remote service's per-file analysis payload. It is consumed,
// never mutated.
type Result struct {
	Language    string            `json:"language"`
	Issues      map[string]string `json:"issues"`
	Runtime     string            `json:"runtime"`
	Suggestions string            `json:"suggestions"`
}

// ToolNames returns the issue keys in their natural (sorted) order,
// excluding the conceptual-error key, which callers render separately.
func (r *Result) ToolNames() []string {
	names := make([]string, 0, len(r.Issues))
	for name := range r.Issues {
		if name == ToolConceptual {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileResult pairs a repository path with its analysis result.
type FileResult struct {
	Path   string
	Result Result
}

// RepoResult is an ordered mapping from file path to Result. Order is the
// discovery order reported by the remote service; encoding/json maps do
// not preserve it, so decoding walks the object tokens directly.
type RepoResult struct {
	Files []FileResult
}

func (r *RepoResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("repository result: expected object, got %v", tok)
	}
	r.Files = r.Files[:0]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		path, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("repository result: non-string key %v", keyTok)
		}
		var res Result
		if err := dec.Decode(&res); err != nil {
			return fmt.Errorf("repository result %q: %w", path, err)
		}
		r.Files = append(r.Files, FileResult{Path: path, Result: res})
	}
	_, err = dec.Token() // closing brace
	return err
}

func (r RepoResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, file := range r.Files {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(file.Path)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(file.Result)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
