package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/firekill222/signaling-server/contract"
	"github.com/firekill222/signaling-server/domain"
	"github.com/firekill222/signaling-server/observability"
)

// StatusPage is the JSON body served on /status.
type StatusPage struct {
	Sessions int                     `json:"sessions"`
	Members  int                     `json:"members"`
	Parties  int                     `json:"parties"`
	Stats    observability.StatsView `json:"stats"`
}

// NewDebugMux builds the debug surface: /status (JSON counters) and
// /parties (plain-text membership table). Both are thin reads over the
// registry snapshot; nothing here mutates relay state.
func NewDebugMux(registry contract.IRegistry, stats *observability.RelayStats) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		snapshot := registry.Snapshot()
		page := StatusPage{
			Sessions: snapshot.Sessions,
			Members:  snapshot.Members,
			Parties:  len(snapshot.Parties),
			Stats:    stats.Latest(),
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(page)
	})

	mux.HandleFunc("/parties", func(w http.ResponseWriter, r *http.Request) {
		snapshot := registry.Snapshot()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Party", "Size", "Members"})
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, party := range snapshot.Parties {
			members := lo.Map(party.Members, func(id domain.MemberID, _ int) string {
				return strconv.FormatInt(int64(id), 10)
			})
			table.Append([]string{
				strconv.FormatInt(int64(party.ID), 10),
				strconv.Itoa(len(party.Members)),
				strings.Join(members, ", "),
			})
		}
		table.Render()
	})

	return mux
}

// StartDebugServer serves the debug mux in the background and returns the
// server so the caller can shut it down with the rest of the process.
// Failures to bind are logged, never fatal: the relay works without its
// debug port.
func StartDebugServer(log *slog.Logger, port int,
	registry contract.IRegistry, stats *observability.RelayStats) *http.Server {
	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", port),
		Handler: NewDebugMux(registry, stats),
	}
	go func() {
		log.Info("Debug server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
	return server
}
