package nexus_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
	"github.com/m-mizutani/modsync/pkg/infra/nexus"
)

const testAPIKey = types.Credential("test-api-key")

func newMockAPI(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requests != nil {
				requests.Add(1)
			}
			if r.Header.Get("apikey") != testAPIKey.String() {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	router.Get("/v1/user/tracked_mods.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"mod_id":101,"domain_name":"testgame"},{"mod_id":102,"domain_name":"testgame"},{"mod_id":101}]`))
	})
	router.Get("/v1/games/{domain}/mods/{modID}/files.json", func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Query().Get("category"), "main")
		switch chi.URLParam(r, "modID") {
		case "101":
			_, _ = w.Write([]byte(`{"files":[{"file_id":5001}]}`))
		case "102":
			_, _ = w.Write([]byte(`{"files":[]}`))
		case "500":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	router.Get("/v1/games/{domain}/mods/{modID}/files/{fileID}/download_link.json", func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Query().Get("expires"), "999999")
		if chi.URLParam(r, "fileID") == "5001" {
			_, _ = w.Write([]byte(`[{"name":"Nexus CDN","URI":"https://cdn.example.com/101/SkyUI_5_2.7z?md5=abc&expires=1"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	router.Get("/v1/games/{domain}/mods/{modID}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "modID") {
		case "101":
			_, _ = w.Write([]byte(`{"mod_id":101,"name":"Sky UI: Remastered"}`))
		case "103":
			_, _ = w.Write([]byte(`{"mod_id":103}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, server *httptest.Server) *nexus.Client {
	t.Helper()
	client, err := nexus.NewClient(testAPIKey, nexus.WithBaseURL(server.URL))
	gt.NoError(t, err)
	return client
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	client, err := nexus.NewClient("")
	gt.Error(t, err)
	gt.Value(t, client).Nil()
	gt.True(t, goerr.HasTag(err, types.ErrTagConfiguration))
}

func TestClient_TrackedModIDs(t *testing.T) {
	client := newClient(t, newMockAPI(t, nil))

	ids, err := client.TrackedModIDs(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, ids, []model.ModID{101, 102})
}

func TestClient_TrackedModIDs_EmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newClient(t, server)
	ids, err := client.TrackedModIDs(context.Background())
	gt.NoError(t, err)
	gt.A(t, ids).Length(0)
}

func TestClient_TrackedModIDs_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"unexpected"`))
	}))
	defer server.Close()

	client := newClient(t, server)
	_, err := client.TrackedModIDs(context.Background())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagProtocol))
}

func TestClient_TrackedModIDs_Unauthorized(t *testing.T) {
	server := newMockAPI(t, nil)
	client, err := nexus.NewClient("wrong-key", nexus.WithBaseURL(server.URL))
	gt.NoError(t, err)

	_, err = client.TrackedModIDs(context.Background())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagProtocol))
}

func TestClient_FileIDs(t *testing.T) {
	client := newClient(t, newMockAPI(t, nil))
	ctx := context.Background()

	t.Run("mod with files", func(t *testing.T) {
		ids, err := client.FileIDs(ctx, "testgame", 101)
		gt.NoError(t, err)
		gt.Equal(t, ids, []model.FileID{5001})
	})

	t.Run("mod without files", func(t *testing.T) {
		ids, err := client.FileIDs(ctx, "testgame", 102)
		gt.NoError(t, err)
		gt.A(t, ids).Length(0)
	})

	t.Run("unknown mod yields no files", func(t *testing.T) {
		ids, err := client.FileIDs(ctx, "testgame", 999)
		gt.NoError(t, err)
		gt.A(t, ids).Length(0)
	})

	t.Run("server failure is a transport error", func(t *testing.T) {
		_, err := client.FileIDs(ctx, "testgame", 500)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagTransport))
	})
}

func TestClient_DownloadURL(t *testing.T) {
	client := newClient(t, newMockAPI(t, nil))
	ctx := context.Background()

	url, err := client.DownloadURL(ctx, "testgame", 101, 5001)
	gt.NoError(t, err)
	gt.Equal(t, url, "https://cdn.example.com/101/SkyUI_5_2.7z?md5=abc&expires=1")

	_, err = client.DownloadURL(ctx, "testgame", 101, 5002)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))
}

func TestClient_DisplayName(t *testing.T) {
	client := newClient(t, newMockAPI(t, nil))
	ctx := context.Background()

	name, err := client.DisplayName(ctx, "testgame", 101)
	gt.NoError(t, err)
	gt.Equal(t, name, "Sky UI: Remastered")

	_, err = client.DisplayName(ctx, "testgame", 103)
	gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))

	_, err = client.DisplayName(ctx, "testgame", 104)
	gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))
}

func TestClient_FileCategory(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("category")
		_, _ = w.Write([]byte(`{"files":[]}`))
	}))
	defer server.Close()

	client, err := nexus.NewClient(testAPIKey, nexus.WithBaseURL(server.URL+"/"), nexus.WithFileCategory("optional"))
	gt.NoError(t, err)

	_, err = client.FileIDs(context.Background(), "testgame", 1)
	gt.NoError(t, err)
	gt.Equal(t, got, "optional")
}

func TestClient_NoRequestWithoutKey(t *testing.T) {
	var requests atomic.Int32
	newMockAPI(t, &requests)

	_, err := nexus.NewClient("")
	gt.Error(t, err)
	gt.Equal(t, requests.Load(), int32(0))
}
