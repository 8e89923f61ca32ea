package gamebanana

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/model"
)

const modTypeTitle = "Mod"

type subscriptionRecord struct {
	Subscription *struct {
		SingularTitle string `json:"_sSingularTitle"`
		Name          string `json:"_sName"`
		ProfileURL    string `json:"_sProfileUrl"`
	} `json:"_aSubscription"`
}

type fileEntry struct {
	ID          *int64 `json:"_idRow"`
	DownloadURL string `json:"_sDownloadUrl"`
}

// listedFile is a file entry of a mod with a usable download URL
type listedFile struct {
	ID  model.FileID
	URL string
}

func decodeSubscriptions(ctx context.Context, body []byte) model.Decoded[model.Subscription] {
	if !isObject(body) {
		return model.Malformed[model.Subscription](goerr.New("subscriptions response is not an object"))
	}

	var resp struct {
		Records *[]subscriptionRecord `json:"_aRecords"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Malformed[model.Subscription](goerr.Wrap(err, "failed to parse subscriptions"))
	}
	if resp.Records == nil {
		return model.Empty[model.Subscription]()
	}

	var subs []model.Subscription
	for _, rec := range *resp.Records {
		s := rec.Subscription
		if s == nil || s.SingularTitle != modTypeTitle || s.ProfileURL == "" || s.Name == "" {
			continue
		}

		modID, ok := ExtractModID(s.ProfileURL)
		if !ok {
			ctxlog.From(ctx).Warn("Failed to extract mod ID from profile URL", "profile_url", s.ProfileURL)
			continue
		}

		subs = append(subs, model.Subscription{
			ModID:      modID,
			Name:       s.Name,
			ProfileURL: s.ProfileURL,
		})
	}

	return model.List(subs)
}

// decodeFiles reads the "_aFiles" array of a mod. Entries without a download
// URL are dropped and entries without a row ID are numbered by position.
func decodeFiles(body []byte) model.Decoded[listedFile] {
	if !isObject(body) {
		return model.Malformed[listedFile](goerr.New("mod response is not an object"))
	}

	var resp struct {
		Files *[]fileEntry `json:"_aFiles"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Malformed[listedFile](goerr.Wrap(err, "failed to parse mod files"))
	}
	if resp.Files == nil {
		return model.Empty[listedFile]()
	}

	var files []listedFile
	for i, f := range *resp.Files {
		if f.DownloadURL == "" {
			continue
		}
		id := model.FileID(i + 1)
		if f.ID != nil {
			id = model.FileID(*f.ID)
		}
		files = append(files, listedFile{ID: id, URL: f.DownloadURL})
	}

	return model.List(files)
}

// ExtractModID returns the numeric mod ID following "/mods/" in a profile URL
// such as https://gamebanana.com/mods/12345
func ExtractModID(profileURL string) (model.ModID, bool) {
	const marker = "/mods/"
	pos := strings.Index(profileURL, marker)
	if pos < 0 {
		return 0, false
	}

	rest := profileURL[pos+len(marker):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	return model.ParseModID(rest)
}

func isObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
