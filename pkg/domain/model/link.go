package model

import (
	"cmp"
	"slices"
)

// LinkKey identifies a single downloadable artifact
type LinkKey struct {
	ModID  ModID
	FileID FileID
}

func (k LinkKey) compare(other LinkKey) int {
	if c := cmp.Compare(k.ModID, other.ModID); c != 0 {
		return c
	}
	return cmp.Compare(k.FileID, other.FileID)
}

// LinkRecord is a resolved download link. The URL may be signed and expire,
// so a record is only meant for the download session that follows its
// resolution.
type LinkRecord struct {
	LinkKey
	URL string
}

// LinkSet maps (mod, file) to a download URL. Keys are unique; insertion order
// is irrelevant.
type LinkSet map[LinkKey]string

// NewLinkSet creates a LinkSet from records. A later record overrides an
// earlier one with the same key.
func NewLinkSet(records ...LinkRecord) LinkSet {
	set := make(LinkSet, len(records))
	for _, r := range records {
		set[r.LinkKey] = r.URL
	}
	return set
}

// Add stores a URL for the key
func (s LinkSet) Add(modID ModID, fileID FileID, url string) {
	s[LinkKey{ModID: modID, FileID: fileID}] = url
}

// Records returns all links ordered by mod ID then file ID
func (s LinkSet) Records() []LinkRecord {
	records := make([]LinkRecord, 0, len(s))
	for key, url := range s {
		records = append(records, LinkRecord{LinkKey: key, URL: url})
	}
	slices.SortFunc(records, func(a, b LinkRecord) int {
		return a.compare(b.LinkKey)
	})
	return records
}

// ModIDs returns distinct mod IDs of the set in ascending order
func (s LinkSet) ModIDs() []ModID {
	seen := make(map[ModID]struct{}, len(s))
	var ids []ModID
	for key := range s {
		if _, ok := seen[key.ModID]; ok {
			continue
		}
		seen[key.ModID] = struct{}{}
		ids = append(ids, key.ModID)
	}
	slices.Sort(ids)
	return ids
}
