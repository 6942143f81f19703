package discord_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/cupnotifier/pkg/infra/discord"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestClient_Send(t *testing.T) {
	var received map[string]any
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	link := "https://hub.docker.com/r/repo/app"
	batch := model.Batch{
		{
			Title:        "New version of repo/app",
			Description:  "Image app running with version 1.0.0 can be updated to 1.1.0",
			Color:        2326507,
			URL:          &link,
			ThumbnailURL: "https://example.com/app.png",
		},
		{
			Title:        "New version of org/tool",
			Description:  "Image tool running with digest sha256:aaa can be updated to sha256:bbb",
			Color:        2326507,
			ThumbnailURL: "https://example.com/tool.png",
		},
	}

	sink := discord.NewClient(server.URL)
	gt.Number(t, sink.MaxBatchSize()).Equal(10)
	gt.NoError(t, sink.Send(context.Background(), batch))
	gt.Value(t, contentType).Equal("application/json")

	embeds, ok := received["embeds"].([]any)
	gt.Value(t, ok).Equal(true)
	gt.A(t, embeds).Length(2)

	first := embeds[0].(map[string]any)
	gt.Value(t, first["title"]).Equal(any("New version of repo/app"))
	gt.Value(t, first["url"]).Equal(any(link))
	gt.Value(t, first["color"]).Equal(any(float64(2326507)))
	gt.Value(t, first["thumbnail"].(map[string]any)["url"]).Equal(any("https://example.com/app.png"))

	second := embeds[1].(map[string]any)
	_, hasURL := second["url"]
	gt.Value(t, hasURL).Equal(false)
}

func TestClient_Send_Failure(t *testing.T) {
	t.Run("Non-success status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"You are being rate limited."}`))
		}))
		defer server.Close()

		err := discord.NewClient(server.URL).Send(context.Background(), model.Batch{{Title: "x"}})
		gt.Error(t, err)
		gt.Value(t, goerr.HasTag(err, types.ErrTagSinkDelivery)).Equal(true)
	})

	t.Run("Unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		err := discord.NewClient(url).Send(context.Background(), model.Batch{{Title: "x"}})
		gt.Error(t, err)
		gt.Value(t, goerr.HasTag(err, types.ErrTagSinkDelivery)).Equal(true)
	})

	t.Run("Batch too large", func(t *testing.T) {
		batch := make(model.Batch, discord.MaxEmbeds+1)
		for i := range batch {
			batch[i] = &model.Notification{Title: "x"}
		}
		err := discord.NewClient("http://localhost:0").Send(context.Background(), batch)
		gt.Error(t, err)
		gt.Value(t, goerr.HasTag(err, types.ErrTagSinkDelivery)).Equal(true)
	})
}
