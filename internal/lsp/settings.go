package lsp

import (
	"encoding/json"
	"time"

	"smarty/internal/analysis"
)

// applySettings merges the "smarty" section of a didChangeConfiguration
// payload into the live scheduler settings. Absent fields keep their
// current values.
func (s *Server) applySettings(raw json.RawMessage) {
	var wrapped lspSettings
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		s.logf("ignoring malformed settings: %v", err)
		return
	}
	incoming := wrapped.Smarty

	s.mu.Lock()
	settings := s.settings
	if incoming.EnableRealTimeAnalysis != nil {
		settings.Realtime = *incoming.EnableRealTimeAnalysis
	}
	if incoming.EnableFallbackDetection != nil {
		settings.Fallback = *incoming.EnableFallbackDetection
	}
	if incoming.AnalysisDelay != nil && *incoming.AnalysisDelay > 0 {
		settings.Delay = time.Duration(*incoming.AnalysisDelay) * time.Millisecond
	}
	s.settings = settings
	if incoming.APIURL != nil && *incoming.APIURL != "" && *incoming.APIURL != s.client.APIURL() {
		s.client = analysis.NewClient(*incoming.APIURL)
	}
	s.mu.Unlock()

	s.sessions.SetSettings(settings)
}

// stringArgument decodes the first command argument as a string, tolerating
// both a bare string and an object with a "uri" field.
func stringArgument(args []json.RawMessage) string {
	if len(args) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(args[0], &str); err == nil {
		return str
	}
	var obj struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(args[0], &obj); err == nil {
		return obj.URI
	}
	return ""
}
