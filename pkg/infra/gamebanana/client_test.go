package gamebanana_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/modsync/pkg/domain/interfaces"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/infra/gamebanana"
)

const subscriptionsBody = `{
  "_aMetadata": {"_nRecordCount": 4},
  "_aRecords": [
    {"_aSubscription": {"_sSingularTitle": "Mod", "_sName": "Better HUD", "_sProfileUrl": "https://gamebanana.com/mods/12345"}},
    {"_aSubscription": {"_sSingularTitle": "Tool", "_sName": "Some Tool", "_sProfileUrl": "https://gamebanana.com/tools/777"}},
    {"_aSubscription": {"_sSingularTitle": "Mod", "_sName": "No URL"}},
    {"_aSubscription": {"_sSingularTitle": "Mod", "_sName": "Odd URL", "_sProfileUrl": "https://gamebanana.com/mods/abc"}},
    {"_aSubscription": {"_sSingularTitle": "Mod", "_sName": "Skin Pack", "_sProfileUrl": "https://gamebanana.com/mods/678?tab=files"}},
    {"_sOther": true}
  ]
}`

func newMockAPI(t *testing.T) *httptest.Server {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/apiv11/Member/{userID}/Subscriptions", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "userID") {
		case "42":
			_, _ = w.Write([]byte(subscriptionsBody))
		case "43":
			_, _ = w.Write([]byte(`{"_aMetadata":{}}`))
		case "44":
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	router.Get("/apiv11/Mod/{modID}", func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Query().Get("_csvProperties"), "_aFiles")
		switch chi.URLParam(r, "modID") {
		case "12345":
			_, _ = w.Write([]byte(`{"_aFiles":[
				{"_idRow": 900, "_sFile": "hud.zip", "_sDownloadUrl": "https://gamebanana.com/dl/900"},
				{"_idRow": 901, "_sFile": "broken.zip"},
				{"_sDownloadUrl": "https://gamebanana.com/dl/unnumbered"}
			]}`))
		case "678":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Subscriptions(t *testing.T) {
	client := gamebanana.NewClient(gamebanana.WithBaseURL(newMockAPI(t).URL))
	ctx := context.Background()

	t.Run("keeps mods with usable profile URL", func(t *testing.T) {
		subs, err := client.Subscriptions(ctx, "42")
		gt.NoError(t, err)
		gt.Equal(t, subs, []model.Subscription{
			{ModID: 12345, Name: "Better HUD", ProfileURL: "https://gamebanana.com/mods/12345"},
			{ModID: 678, Name: "Skin Pack", ProfileURL: "https://gamebanana.com/mods/678?tab=files"},
		})
	})

	t.Run("no records", func(t *testing.T) {
		subs, err := client.Subscriptions(ctx, "43")
		gt.NoError(t, err)
		gt.A(t, subs).Length(0)
	})

	t.Run("malformed response", func(t *testing.T) {
		_, err := client.Subscriptions(ctx, "44")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagProtocol))
	})

	t.Run("unknown member", func(t *testing.T) {
		subs, err := client.Subscriptions(ctx, "45")
		gt.NoError(t, err)
		gt.A(t, subs).Length(0)
	})

	t.Run("missing user ID", func(t *testing.T) {
		_, err := client.Subscriptions(ctx, "")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagConfiguration))
	})
}

func TestClient_Files(t *testing.T) {
	client := gamebanana.NewClient(gamebanana.WithBaseURL(newMockAPI(t).URL))
	ctx := context.Background()

	t.Run("lists files with download URL", func(t *testing.T) {
		ids, err := client.FileIDs(ctx, "gamebanana", 12345)
		gt.NoError(t, err)
		gt.Equal(t, ids, []model.FileID{900, 3})

		u, err := client.DownloadURL(ctx, "gamebanana", 12345, 900)
		gt.NoError(t, err)
		gt.Equal(t, u, "https://gamebanana.com/dl/900")

		u, err = client.DownloadURL(ctx, "gamebanana", 12345, 3)
		gt.NoError(t, err)
		gt.Equal(t, u, "https://gamebanana.com/dl/unnumbered")
	})

	t.Run("listed URL is cached", func(t *testing.T) {
		var source interfaces.CachedLinkSource = client
		u, ok := source.CachedDownloadURL("gamebanana", 12345, 900)
		gt.True(t, ok)
		gt.Equal(t, u, "https://gamebanana.com/dl/900")

		_, ok = source.CachedDownloadURL("gamebanana", 12345, 901)
		gt.False(t, ok)
	})

	t.Run("unlisted file is not found", func(t *testing.T) {
		_, err := client.DownloadURL(ctx, "gamebanana", 12345, 901)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))
	})

	t.Run("mod without files", func(t *testing.T) {
		ids, err := client.FileIDs(ctx, "gamebanana", 678)
		gt.NoError(t, err)
		gt.A(t, ids).Length(0)
	})

	t.Run("unavailable service", func(t *testing.T) {
		_, err := client.FileIDs(ctx, "gamebanana", 1)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagTransport))
	})
}

func TestExtractModID(t *testing.T) {
	tests := []struct {
		url string
		id  model.ModID
		ok  bool
	}{
		{url: "https://gamebanana.com/mods/12345", id: 12345, ok: true},
		{url: "https://gamebanana.com/mods/12345/", id: 12345, ok: true},
		{url: "https://gamebanana.com/mods/12345#updates", id: 12345, ok: true},
		{url: "https://gamebanana.com/tools/12345"},
		{url: "https://gamebanana.com/mods/"},
		{url: "https://gamebanana.com/mods/x1"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := gamebanana.ExtractModID(tt.url)
			gt.Equal(t, ok, tt.ok)
			gt.Equal(t, id, tt.id)
		})
	}
}
