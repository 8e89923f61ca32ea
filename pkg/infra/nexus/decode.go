package nexus

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
)

type trackedMod struct {
	ModID *int64 `json:"mod_id"`
}

type fileEntry struct {
	FileID *int64 `json:"file_id"`
}

type downloadLink struct {
	URI string `json:"URI"`
}

// decodeTrackedMods accepts either an array of records or an object with a
// "mods" array. An object without "mods" carries no data.
func decodeTrackedMods(body []byte) model.Decoded[model.ModID] {
	var records []trackedMod

	switch firstByte(body) {
	case '[':
		if err := json.Unmarshal(body, &records); err != nil {
			return model.Malformed[model.ModID](goerr.Wrap(err, "failed to parse tracked mods array"))
		}

	case '{':
		var wrapper struct {
			Mods *[]trackedMod `json:"mods"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return model.Malformed[model.ModID](goerr.Wrap(err, "failed to parse tracked mods object"))
		}
		if wrapper.Mods == nil {
			return model.Empty[model.ModID]()
		}
		records = *wrapper.Mods

	default:
		return model.Malformed[model.ModID](goerr.New("tracked mods response is neither array nor object",
			goerr.V("body", truncate(body))))
	}

	ids := make([]model.ModID, 0, len(records))
	for _, r := range records {
		if r.ModID != nil {
			ids = append(ids, model.ModID(*r.ModID))
		}
	}
	return model.List(ids)
}

// decodeFileList reads the "files" array of a file listing
func decodeFileList(body []byte) model.Decoded[model.FileID] {
	if firstByte(body) != '{' {
		return model.Malformed[model.FileID](goerr.New("file list response is not an object",
			goerr.V("body", truncate(body))))
	}

	var resp struct {
		Files *[]fileEntry `json:"files"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Malformed[model.FileID](goerr.Wrap(err, "failed to parse file list"))
	}
	if resp.Files == nil {
		return model.Empty[model.FileID]()
	}

	ids := make([]model.FileID, 0, len(*resp.Files))
	for _, f := range *resp.Files {
		if f.FileID != nil {
			ids = append(ids, model.FileID(*f.FileID))
		}
	}
	return model.List(ids)
}

// decodeDownloadLinks returns the URI of the first link only. Other links
// point at mirrors of the same file.
func decodeDownloadLinks(body []byte) model.Decoded[string] {
	if firstByte(body) != '[' {
		return model.Malformed[string](goerr.New("download link response is not an array",
			goerr.V("body", truncate(body))))
	}

	var links []downloadLink
	if err := json.Unmarshal(body, &links); err != nil {
		return model.Malformed[string](goerr.Wrap(err, "failed to parse download links"))
	}
	if len(links) == 0 || links[0].URI == "" {
		return model.Empty[string]()
	}

	return model.List([]string{links[0].URI})
}

func decodeModName(body []byte) (string, error) {
	if firstByte(body) != '{' {
		return "", goerr.New("mod response is not an object",
			goerr.V("body", truncate(body)),
			goerr.T(types.ErrTagProtocol))
	}

	var mod struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(body, &mod); err != nil {
		return "", goerr.Wrap(err, "failed to parse mod", goerr.T(types.ErrTagProtocol))
	}
	if mod.Name == nil || *mod.Name == "" {
		return "", goerr.New("mod has no name", goerr.T(types.ErrTagNotFound))
	}

	return *mod.Name, nil
}

func firstByte(body []byte) byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
