package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/modsync/pkg/domain/model"
)

func TestLinkSet(t *testing.T) {
	set := model.NewLinkSet(
		model.LinkRecord{LinkKey: model.LinkKey{ModID: 2, FileID: 1}, URL: "https://b"},
		model.LinkRecord{LinkKey: model.LinkKey{ModID: 1, FileID: 9}, URL: "https://a9"},
		model.LinkRecord{LinkKey: model.LinkKey{ModID: 1, FileID: 3}, URL: "https://old"},
		model.LinkRecord{LinkKey: model.LinkKey{ModID: 1, FileID: 3}, URL: "https://a3"},
	)
	set.Add(3, 1, "https://c")

	records := set.Records()
	gt.A(t, records).Length(4)
	gt.Equal(t, records[0], model.LinkRecord{LinkKey: model.LinkKey{ModID: 1, FileID: 3}, URL: "https://a3"})
	gt.Equal(t, records[1].LinkKey, model.LinkKey{ModID: 1, FileID: 9})
	gt.Equal(t, records[2].LinkKey, model.LinkKey{ModID: 2, FileID: 1})
	gt.Equal(t, records[3].LinkKey, model.LinkKey{ModID: 3, FileID: 1})

	gt.Equal(t, set.ModIDs(), []model.ModID{1, 2, 3})
}

func TestDecoded(t *testing.T) {
	gt.Equal(t, model.List([]int{}).Kind, model.DecodeEmpty)
	gt.Equal(t, model.List([]int{1}).Kind, model.DecodeList)
	gt.Equal(t, model.Empty[int]().Kind, model.DecodeEmpty)
	gt.Equal(t, model.Malformed[int](nil).Kind.String(), "malformed")
}

func TestRunSummary_Failed(t *testing.T) {
	ok := &model.RunSummary{Domains: []*model.DomainReport{{
		Download: &model.DownloadReport{Outcomes: []model.DownloadOutcome{{Status: model.DownloadSucceeded}}},
	}}}
	gt.False(t, ok.Failed())

	failedDownload := &model.RunSummary{Domains: []*model.DomainReport{{
		Download: &model.DownloadReport{Outcomes: []model.DownloadOutcome{{Status: model.DownloadFailed}}},
	}}}
	gt.True(t, failedDownload.Failed())

	failedFolder := &model.RunSummary{Domains: []*model.DomainReport{{
		Reconcile: &model.ReconcileReport{Outcomes: []model.FolderOutcome{{Action: model.FolderFailed}}},
	}}}
	gt.True(t, failedFolder.Failed())
}
