package nexus

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
)

func TestDecodeTrackedMods(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind model.DecodeKind
		ids  []model.ModID
	}{
		{
			name: "array of records",
			body: `[{"mod_id":101,"domain_name":"skyrim"},{"mod_id":102}]`,
			kind: model.DecodeList,
			ids:  []model.ModID{101, 102},
		},
		{
			name: "object with mods",
			body: `{"mods":[{"mod_id":7}]}`,
			kind: model.DecodeList,
			ids:  []model.ModID{7},
		},
		{
			name: "records without mod_id are ignored",
			body: `[{"mod_id":1},{"name":"x"}]`,
			kind: model.DecodeList,
			ids:  []model.ModID{1},
		},
		{
			name: "empty array",
			body: `[]`,
			kind: model.DecodeEmpty,
		},
		{
			name: "object without mods",
			body: `{"message":"nothing tracked"}`,
			kind: model.DecodeEmpty,
		},
		{
			name: "not json",
			body: `<html>oops</html>`,
			kind: model.DecodeMalformed,
		},
		{
			name: "broken array",
			body: `[{"mod_id":1}`,
			kind: model.DecodeMalformed,
		},
		{
			name: "empty body",
			body: ``,
			kind: model.DecodeMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeTrackedMods([]byte(tt.body))
			gt.Equal(t, got.Kind, tt.kind)
			if tt.kind == model.DecodeList {
				gt.Equal(t, got.Items, tt.ids)
			}
			if tt.kind == model.DecodeMalformed {
				gt.Error(t, got.Err)
			}
		})
	}
}

func TestDecodeFileList(t *testing.T) {
	got := decodeFileList([]byte(`{"files":[{"file_id":5001,"name":"main"},{"file_id":5002}],"file_updates":[]}`))
	gt.Equal(t, got.Kind, model.DecodeList)
	gt.Equal(t, got.Items, []model.FileID{5001, 5002})

	gt.Equal(t, decodeFileList([]byte(`{"files":[]}`)).Kind, model.DecodeEmpty)
	gt.Equal(t, decodeFileList([]byte(`{"error":"x"}`)).Kind, model.DecodeEmpty)
	gt.Equal(t, decodeFileList([]byte(`[1,2]`)).Kind, model.DecodeMalformed)
	gt.Equal(t, decodeFileList([]byte(`{"files":"nope"}`)).Kind, model.DecodeMalformed)
}

func TestDecodeDownloadLinks(t *testing.T) {
	got := decodeDownloadLinks([]byte(`[{"name":"CDN","short_name":"cdn","URI":"https://cdn.example/a.zip?md5=x"},{"URI":"https://mirror"}]`))
	gt.Equal(t, got.Kind, model.DecodeList)
	gt.Equal(t, got.Items, []string{"https://cdn.example/a.zip?md5=x"})

	gt.Equal(t, decodeDownloadLinks([]byte(`[]`)).Kind, model.DecodeEmpty)
	gt.Equal(t, decodeDownloadLinks([]byte(`[{"name":"CDN"}]`)).Kind, model.DecodeEmpty)
	gt.Equal(t, decodeDownloadLinks([]byte(`{"URI":"x"}`)).Kind, model.DecodeMalformed)
}

func TestDecodeModName(t *testing.T) {
	name, err := decodeModName([]byte(`{"name":"SkyUI","mod_id":3863}`))
	gt.NoError(t, err)
	gt.Equal(t, name, "SkyUI")

	_, err = decodeModName([]byte(`{"mod_id":3863}`))
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))

	_, err = decodeModName([]byte(`{"name":""}`))
	gt.True(t, goerr.HasTag(err, types.ErrTagNotFound))

	_, err = decodeModName([]byte(`[]`))
	gt.True(t, goerr.HasTag(err, types.ErrTagProtocol))
}
