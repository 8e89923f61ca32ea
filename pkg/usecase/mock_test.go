package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
)

// MockCatalog implements NexusClient and GameBananaClient. Unset functions
// serve the files map and derive URLs from the key.
type MockCatalog struct {
	files   map[model.ModID][]model.FileID
	names   map[model.ModID]string
	tracked []model.ModID
	subs    []model.Subscription

	fileIDsFunc     func(ctx context.Context, modID model.ModID, call int) ([]model.FileID, error)
	downloadURLFunc func(ctx context.Context, modID model.ModID, fileID model.FileID) (string, error)

	mu        sync.Mutex
	calls     []string
	callTimes []time.Time
	fileCalls map[model.ModID]int
}

func (m *MockCatalog) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	m.callTimes = append(m.callTimes, time.Now())
}

func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockCatalog) CallTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.callTimes...)
}

func (m *MockCatalog) FileIDs(ctx context.Context, domain model.GameDomain, modID model.ModID) ([]model.FileID, error) {
	m.record(fmt.Sprintf("files:%s:%d", domain, modID))

	m.mu.Lock()
	if m.fileCalls == nil {
		m.fileCalls = map[model.ModID]int{}
	}
	m.fileCalls[modID]++
	call := m.fileCalls[modID]
	m.mu.Unlock()

	if m.fileIDsFunc != nil {
		return m.fileIDsFunc(ctx, modID, call)
	}
	files, ok := m.files[modID]
	if !ok {
		return []model.FileID{}, nil
	}
	return files, nil
}

func (m *MockCatalog) DownloadURL(ctx context.Context, domain model.GameDomain, modID model.ModID, fileID model.FileID) (string, error) {
	m.record(fmt.Sprintf("url:%s:%d:%d", domain, modID, fileID))
	if m.downloadURLFunc != nil {
		return m.downloadURLFunc(ctx, modID, fileID)
	}
	return mockURL(modID, fileID), nil
}

func (m *MockCatalog) DisplayName(ctx context.Context, domain model.GameDomain, modID model.ModID) (string, error) {
	m.record(fmt.Sprintf("name:%s:%d", domain, modID))
	name, ok := m.names[modID]
	if !ok {
		return "", goerr.New("mod not found", goerr.T(types.ErrTagNotFound))
	}
	return name, nil
}

func (m *MockCatalog) TrackedModIDs(ctx context.Context) ([]model.ModID, error) {
	m.record("tracked")
	return m.tracked, nil
}

func (m *MockCatalog) Subscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	m.record("subscriptions:" + userID)
	if userID == "" {
		return nil, goerr.New("user ID is required", goerr.T(types.ErrTagConfiguration))
	}
	return m.subs, nil
}

func mockURL(modID model.ModID, fileID model.FileID) string {
	return fmt.Sprintf("https://cdn.example.com/%d/file_%d.7z?expires=1", modID, fileID)
}

func transportError() error {
	return goerr.New("connection reset", goerr.T(types.ErrTagTransport))
}

// MockStreamer serves downloads from memory. Unset streamFunc answers 200
// with a body derived from the URL.
type MockStreamer struct {
	streamFunc func(url string, attempt int) (int, []byte, error)

	mu       sync.Mutex
	attempts map[string]int
	ctxErrs  []error
}

func (m *MockStreamer) Stream(ctx context.Context, url string, w io.Writer) (int, error) {
	m.mu.Lock()
	if m.attempts == nil {
		m.attempts = map[string]int{}
	}
	m.attempts[url]++
	attempt := m.attempts[url]
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	m.mu.Unlock()

	status, body, err := http200(url)
	if m.streamFunc != nil {
		status, body, err = m.streamFunc(url, attempt)
	}
	if err != nil {
		return 0, err
	}
	if status == 200 {
		if _, err := w.Write(body); err != nil {
			return status, err
		}
	}
	return status, nil
}

func (m *MockStreamer) Attempts(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[url]
}

func (m *MockStreamer) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.attempts {
		n += v
	}
	return n
}

func http200(url string) (int, []byte, error) {
	return 200, []byte("content of " + url), nil
}

// MockNotifier records summaries
type MockNotifier struct {
	err error

	mu        sync.Mutex
	summaries []*model.RunSummary
}

func (m *MockNotifier) Notify(ctx context.Context, summary *model.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, summary)
	return m.err
}
