package linkstore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
)

// FileName is the name of the link file within a domain directory
const FileName = "download_links.txt"

// Path returns the location of the link file of a domain:
// {base}/{domain}/download_links.txt
func Path(base string, domain model.GameDomain) string {
	return filepath.Join(base, domain.String(), FileName)
}

// Store persists link sets as plain text, one "modID,fileID,url" row per
// link. Commas inside the URL are not escaped: the URL is the remainder of the
// row after the second comma.
type Store struct{}

// New creates a Store
func New() *Store {
	return &Store{}
}

// Save writes the set ordered by mod ID and file ID. The file is written to a
// temporary name first and renamed into place, so a crash never leaves a
// truncated link file behind.
func (s *Store) Save(set model.LinkSet, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create link file directory", goerr.V("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary link file", goerr.V("dir", dir))
	}
	defer func() {
		_ = os.Remove(tmp.Name()) // no-op after a successful rename
	}()

	w := bufio.NewWriter(tmp)
	for _, r := range set.Records() {
		if _, err := w.WriteString(FormatRecord(r) + "\n"); err != nil {
			_ = tmp.Close()
			return goerr.Wrap(err, "failed to write link file", goerr.V("path", tmp.Name()))
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to flush link file", goerr.V("path", tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close link file", goerr.V("path", tmp.Name()))
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return goerr.Wrap(err, "failed to set link file permissions", goerr.V("path", tmp.Name()))
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return goerr.Wrap(err, "failed to move link file into place", goerr.V("path", path))
	}

	return nil
}

// Load reads a link file. A missing file yields an empty set without error.
// Any malformed row fails the whole load with a format error that names the
// line.
func (s *Store) Load(path string) (model.LinkSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.LinkSet{}, nil
		}
		return nil, goerr.Wrap(err, "failed to open link file", goerr.V("path", path))
	}
	defer f.Close()

	set := model.LinkSet{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, err := ParseRecord(line)
		if err != nil {
			return nil, goerr.Wrap(err, fmt.Sprintf("malformed link file at line %d", lineNo),
				goerr.V("path", path),
				goerr.V("line_number", lineNo),
				goerr.V("line", line),
				goerr.T(types.ErrTagFormat))
		}
		set[record.LinkKey] = record.URL
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read link file",
			goerr.V("path", path),
			goerr.V("line_number", lineNo+1),
			goerr.T(types.ErrTagFormat))
	}

	return set, nil
}

// FormatRecord renders one row of the link file without the line break
func FormatRecord(r model.LinkRecord) string {
	return r.ModID.String() + "," + r.FileID.String() + "," + r.URL
}

// ParseRecord parses one row of the link file
func ParseRecord(line string) (model.LinkRecord, error) {
	fields := strings.SplitN(line, ",", 3)
	if len(fields) < 3 {
		return model.LinkRecord{}, goerr.New("row must have three comma separated fields",
			goerr.V("line", line),
			goerr.T(types.ErrTagFormat))
	}

	modID, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return model.LinkRecord{}, goerr.Wrap(err, "mod ID is not an integer",
			goerr.V("line", line),
			goerr.T(types.ErrTagFormat))
	}

	fileID, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return model.LinkRecord{}, goerr.Wrap(err, "file ID is not an integer",
			goerr.V("line", line),
			goerr.T(types.ErrTagFormat))
	}

	if fields[2] == "" {
		return model.LinkRecord{}, goerr.New("URL is empty",
			goerr.V("line", line),
			goerr.T(types.ErrTagFormat))
	}

	return model.LinkRecord{
		LinkKey: model.LinkKey{ModID: model.ModID(modID), FileID: model.FileID(fileID)},
		URL:     fields[2],
	}, nil
}
