// Package lsp exposes the analysis pipeline to editors over stdio
// JSON-RPC. Document lifecycle events drive per-document analysis
// sessions; diagnostics flow back via textDocument/publishDiagnostics.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"smarty/internal/aggregate"
	"smarty/internal/analysis"
	"smarty/internal/diag"
	"smarty/internal/lang"
	"smarty/internal/session"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// Commands exposed through workspace/executeCommand.
const (
	CommandAnalyzeFile         = "smarty.analyzeFile"
	CommandAnalyzeRepo         = "smarty.analyzeRepo"
	CommandFixConceptualErrors = "smarty.fixConceptualErrors"
)

// ServerOptions configures the language server.
type ServerOptions struct {
	APIURL   string
	Settings session.Settings
	// Analyze overrides the remote call, for tests.
	Analyze session.AnalyzeFunc
}

type document struct {
	language string
	version  int
	text     string
}

// Server handles stdio JSON-RPC for the smarty language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	docs              map[string]*document
	lastTouched       string
	workspaceRoot     string
	shutdownRequested bool
	client            *analysis.Client
	settings          session.Settings

	sessions *session.Manager
	baseCtx  context.Context
}

// NewServer constructs a language server reading requests from in and
// writing responses to out.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	s := &Server{
		in:      bufio.NewReader(in),
		out:     bufio.NewWriter(out),
		docs:    make(map[string]*document),
		client:  analysis.NewClient(opts.APIURL),
		baseCtx: context.Background(),
	}
	analyze := opts.Analyze
	if analyze == nil {
		analyze = func(ctx context.Context, code string, focus bool) (*analysis.Result, error) {
			return s.currentClient().Analyze(ctx, code, focus)
		}
	}
	settings := opts.Settings
	if settings.Delay <= 0 {
		settings = session.DefaultSettings()
	}
	s.settings = settings
	s.sessions = session.NewManager(context.Background(), session.Options{
		Settings: settings,
		Analyze:  analyze,
		Sink:     (*publishSink)(s),
		Notify:   s.notifyError,
		Logf:     s.logf,
	})
	return s
}

// Run serves LSP requests until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: []string{CommandAnalyzeFile, CommandAnalyzeRepo, CommandFixConceptualErrors},
			},
		},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	s.docs = make(map[string]*document)
	s.mu.Unlock()
	for _, uri := range uris {
		s.sessions.Close(uri)
	}
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	if uri == "" {
		return nil
	}
	doc := &document{
		language: params.TextDocument.LanguageID,
		version:  params.TextDocument.Version,
		text:     params.TextDocument.Text,
	}
	s.mu.Lock()
	s.docs[uri] = doc
	s.lastTouched = uri
	s.mu.Unlock()
	s.sessions.Edit(uri, doc.language, doc.text)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	doc.text = applyChanges(doc.text, params.ContentChanges)
	doc.version = params.TextDocument.Version
	language, text := doc.language, doc.text
	s.lastTouched = uri
	s.mu.Unlock()
	s.sessions.Edit(uri, language, text)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if params.Text != nil {
		doc.text = *params.Text
	}
	language, text := doc.language, doc.text
	s.lastTouched = uri
	s.mu.Unlock()
	s.sessions.Edit(uri, language, text)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.docs, uri)
	if s.lastTouched == uri {
		s.lastTouched = ""
	}
	s.mu.Unlock()
	s.sessions.Close(uri)
	return nil
}

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	switch params.Command {
	case CommandAnalyzeFile:
		s.triggerDocument(params.Arguments, false)
		return s.sendResponse(msg.ID, nil)
	case CommandFixConceptualErrors:
		s.triggerDocument(params.Arguments, true)
		return s.sendResponse(msg.ID, nil)
	case CommandAnalyzeRepo:
		repoURL := stringArgument(params.Arguments)
		if repoURL == "" {
			s.mu.Lock()
			repoURL = s.workspaceRoot
			s.mu.Unlock()
		}
		if repoURL == "" {
			return s.sendError(msg.ID, -32602, "missing repository URL")
		}
		go s.analyzeRepo(repoURL)
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendError(msg.ID, -32601, fmt.Sprintf("unknown command %q", params.Command))
}

// triggerDocument forces a non-debounced analysis of the named document
// (first argument) or the most recently touched one.
func (s *Server) triggerDocument(args []json.RawMessage, focus bool) {
	uri := stringArgument(args)
	s.mu.Lock()
	if uri == "" {
		uri = s.lastTouched
	}
	doc, ok := s.docs[uri]
	var language, text string
	if ok {
		language, text = doc.language, doc.text
	}
	s.mu.Unlock()
	if !ok || !lang.Supported(language) {
		return
	}
	s.sessions.Trigger(uri, language, text, focus)
}

func (s *Server) analyzeRepo(repoURL string) {
	res, err := s.currentClient().AnalyzeRepo(s.baseCtx, repoURL)
	if err != nil {
		s.notifyError(err.Error())
		return
	}
	report := aggregate.Build(res)
	var b strings.Builder
	report.Render(&b, false)
	s.showMessage(messageTypeInfo, b.String())
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

func (s *Server) currentClient() *analysis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Server) notifyError(message string) {
	s.showMessage(messageTypeError, message)
}

func (s *Server) showMessage(kind int, message string) {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "window/showMessage",
		"params": showMessageParams{
			Type:    kind,
			Message: message,
		},
	}
	if err := s.send(msg); err != nil {
		s.logf("failed to send message: %v", err)
	}
}

// publishSink adapts the server to session.Sink.
type publishSink Server

func (p *publishSink) Publish(uri string, diags []diag.Diagnostic) {
	s := (*Server)(p)
	if err := s.sendPublish(uri, toLSPDiagnostics(diags)); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

func toLSPDiagnostics(diags []diag.Diagnostic) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		item := lspDiagnostic{
			Range: lspRange{
				Start: position{Line: d.Range.Start.Line, Character: d.Range.Start.Col},
				End:   position{Line: d.Range.End.Line, Character: d.Range.End.Col},
			},
			Severity: lspSeverity(d.Severity),
			Source:   d.Source,
			Message:  d.Message,
		}
		if d.FixCommand != "" {
			item.Data = &diagnosticData{FixCommand: d.FixCommand}
		}
		out = append(out, item)
	}
	return out
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}
