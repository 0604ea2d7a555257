package internal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/firekill222/signaling-server/observability"
	"github.com/firekill222/signaling-server/runtime"
)

func TestDebugMux_Status(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	stats := observability.NewRelayStats()

	registry.AddSession("s42")
	registry.AddMember(42, "s42", 7)
	stats.IncrConnects()
	stats.IncrJoins()

	server := httptest.NewServer(NewDebugMux(registry, stats))
	defer server.Close()

	resp, err := http.Get(server.URL + "/status")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var page StatusPage
	req.NoError(json.NewDecoder(resp.Body).Decode(&page))
	req.Equal(1, page.Sessions)
	req.Equal(1, page.Members)
	req.Equal(1, page.Parties)
	req.Equal(uint64(1), page.Stats.Connects)
	req.Equal(uint64(1), page.Stats.Joins)
}

func TestDebugMux_PartiesTable(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	stats := observability.NewRelayStats()

	registry.AddMember(42, "s42", 7)
	registry.AddMember(99, "s99", 7)

	server := httptest.NewServer(NewDebugMux(registry, stats))
	defer server.Close()

	resp, err := http.Get(server.URL + "/parties")
	req.NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Contains(string(body), "7")
	req.Contains(string(body), "42, 99")
}

func TestStartDebugServer_ShutsDownCleanly(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	stats := observability.NewRelayStats()

	// Given a debug server listening on an ephemeral port
	server := StartDebugServer(log, 0, registry, stats)
	req.NotNil(server)

	// When the process tears down
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Then shutdown completes without error and the listener is released
	req.NoError(server.Shutdown(ctx))
}
