package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mxcodec/webcodecs/internal/hwaccel"
)

// acceleratorView is the JSON shape returned by /accelerators; hwaccel.Accelerator
// itself keeps availability private behind a method, so the HTTP layer
// flattens it explicitly rather than exporting internal registry state.
type acceleratorView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a debug HTTP endpoint exposing the accelerator registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			router := mux.NewRouter()
			router.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
			router.HandleFunc("/accelerators", handleAccelerators).Methods(http.MethodGet)

			log.Info().Str("addr", addr).Msg("webcodecs: debug server listening")
			return http.ListenAndServe(addr, router)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	return cmd
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleAccelerators(w http.ResponseWriter, r *http.Request) {
	accs := hwaccel.List()
	views := make([]acceleratorView, len(accs))
	for i, a := range accs {
		views[i] = acceleratorView{Name: a.Name, Description: a.Description, Available: a.Available()}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		log.Error().Err(err).Msg("webcodecs: failed to encode accelerators response")
	}
}
