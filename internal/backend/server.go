// Package backend is a development stand-in for the remote analysis
// service. It serves the same /analyze and /analyze_repo contract the
// client speaks, backed by the local heuristic detector instead of the
// full linter and sandbox fleet.
package backend

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"smarty/internal/analysis"
	"smarty/internal/lang"
)

const (
	maxCodeBytes  = 1 << 20
	maxRepoFiles  = 200
	maxFileBytes  = 256 << 10
	defaultDetail = "internal error"
)

// Options configures the stub service.
type Options struct {
	// OpenAIKey enables AI suggestions when set.
	OpenAIKey string
	// Model selects the suggestion model.
	Model string
	Logf  func(format string, args ...any)
}

type server struct {
	suggest *suggester
	logf    func(format string, args ...any)
}

// NewHandler builds the stub service's HTTP handler.
func NewHandler(opts Options) http.Handler {
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	s := &server{
		suggest: newSuggester(opts.OpenAIKey, opts.Model),
		logf:    logf,
	}

	mux := chi.NewRouter()
	mux.Use(requestID)
	mux.Use(requestLogger(logf))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Post("/analyze", s.handleAnalyze)
	mux.Post("/analyze_repo", s.handleAnalyzeRepo)

	return mux
}

type analyzeRequest struct {
	Code            string `json:"code"`
	FocusConceptual bool   `json:"focus_conceptual"`
}

type analyzeRepoRequest struct {
	RepoURL string `json:"repo_url"`
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCodeBytes)).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeDetail(w, http.StatusBadRequest, "code is required")
		return
	}

	res := evaluate(req.Code, req.FocusConceptual)
	if s.suggest != nil {
		text, err := s.suggest.Suggest(r.Context(), req.Code, req.FocusConceptual)
		if err != nil {
			s.logf("suggestions unavailable: %v", err)
		} else {
			res.Suggestions = text
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleAnalyzeRepo(w http.ResponseWriter, r *http.Request) {
	var req analyzeRepoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCodeBytes)).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	root, err := localRepoPath(req.RepoURL)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	repo, err := s.analyzeTree(root)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

// localRepoPath resolves repo_url to a local directory. The stub does
// not clone remote repositories.
func localRepoPath(repoURL string) (string, error) {
	if strings.TrimSpace(repoURL) == "" {
		return "", errBadRepo("repo_url is required")
	}
	path := repoURL
	if strings.HasPrefix(repoURL, "file://") {
		parsed, err := url.Parse(repoURL)
		if err != nil {
			return "", errBadRepo("malformed repo_url")
		}
		path = parsed.Path
	} else if strings.Contains(repoURL, "://") {
		return "", errBadRepo("only local paths are supported by the development backend")
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", errBadRepo("repo_url does not name a local directory")
	}
	return path, nil
}

type errBadRepo string

func (e errBadRepo) Error() string { return string(e) }

// analyzeTree walks root in lexical order and analyzes every supported
// source file, preserving discovery order in the result.
func (s *server) analyzeTree(root string) (*analysis.RepoResult, error) {
	var repo analysis.RepoResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if len(repo.Files) >= maxRepoFiles {
			return filepath.SkipAll
		}
		if strings.HasPrefix(name, ".") || lang.ForPath(path) == lang.Unknown {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxFileBytes {
			return nil
		}
		code, err := os.ReadFile(path)
		if err != nil {
			s.logf("skip unreadable file: path=%s err=%v", path, err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		repo.Files = append(repo.Files, analysis.FileResult{
			Path:   filepath.ToSlash(rel),
			Result: evaluate(string(code), false),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail reports a failure in the {"detail": …} shape clients parse.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	if detail == "" {
		detail = defaultDetail
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}
