package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"smarty/internal/backend"
)

var serveListen string

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Run the bundled development analysis backend",
	Long: `serve starts a local stand-in for the remote analysis service. It
answers /analyze and /analyze_repo with heuristic findings only, which is
enough to exercise the editor pipeline without the real service. Set
OPENAI_API_KEY to also get AI suggestions.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	listen := serveListen
	if listen == "" {
		listen = cfg.Serve.Listen
	}

	handler := backend.NewHandler(backend.Options{
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
		Model:     cfg.Serve.OpenAIModel,
		Logf:      log.Printf,
	})

	log.Printf("analysis backend listening on %s", listen)
	srv := &http.Server{Addr: listen, Handler: handler}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
