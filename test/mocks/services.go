package mocks

import (
	"context"
	"encoding/json"

	"github.com/Houeta/chrono-dash/internal/changedetection"
	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/stretchr/testify/mock"
)

// Notifier is a mock of ingest.Notifier.
type Notifier struct {
	mock.Mock
}

// NewNotifier creates a mock that asserts its expectations on cleanup.
func NewNotifier(t testingT) *Notifier {
	m := &Notifier{}
	register(&m.Mock, t)

	return m
}

func (m *Notifier) NotifyChange(ctx context.Context, watcher *models.Watcher, change *models.Change) error {
	return m.Called(ctx, watcher, change).Error(0)
}

// Ingester is a mock of ingest.Interface.
type Ingester struct {
	mock.Mock
}

// NewIngester creates a mock that asserts its expectations on cleanup.
func NewIngester(t testingT) *Ingester {
	m := &Ingester{}
	register(&m.Mock, t)

	return m
}

func (m *Ingester) Ingest(ctx context.Context, body []byte) (*models.IngestResult, error) {
	ret := m.Called(ctx, body)

	var r *models.IngestResult
	if v := ret.Get(0); v != nil {
		r = v.(*models.IngestResult)
	}

	return r, ret.Error(1)
}

// ProxyAPI is a mock of proxy.API.
type ProxyAPI struct {
	mock.Mock
}

// NewProxyAPI creates a mock that asserts its expectations on cleanup.
func NewProxyAPI(t testingT) *ProxyAPI {
	m := &ProxyAPI{}
	register(&m.Mock, t)

	return m
}

func (m *ProxyAPI) ListWatches(ctx context.Context) ([]changedetection.Watch, error) {
	ret := m.Called(ctx)

	var w []changedetection.Watch
	if v := ret.Get(0); v != nil {
		w = v.([]changedetection.Watch)
	}

	return w, ret.Error(1)
}

func (m *ProxyAPI) GetWatch(ctx context.Context, uuid string) (*changedetection.Watch, error) {
	ret := m.Called(ctx, uuid)

	var w *changedetection.Watch
	if v := ret.Get(0); v != nil {
		w = v.(*changedetection.Watch)
	}

	return w, ret.Error(1)
}

func (m *ProxyAPI) GetHistory(ctx context.Context, uuid string) (map[string]string, error) {
	ret := m.Called(ctx, uuid)

	var h map[string]string
	if v := ret.Get(0); v != nil {
		h = v.(map[string]string)
	}

	return h, ret.Error(1)
}

func (m *ProxyAPI) GetSnapshot(ctx context.Context, uuid, timestamp string) (string, error) {
	ret := m.Called(ctx, uuid, timestamp)

	return ret.String(0), ret.Error(1)
}

func (m *ProxyAPI) GetDiff(ctx context.Context, uuid, timestamp string) (string, error) {
	ret := m.Called(ctx, uuid, timestamp)

	return ret.String(0), ret.Error(1)
}

func (m *ProxyAPI) DeleteWatch(ctx context.Context, uuid string) error {
	return m.Called(ctx, uuid).Error(0)
}

func (m *ProxyAPI) TriggerCheck(ctx context.Context, uuid string) error {
	return m.Called(ctx, uuid).Error(0)
}

func (m *ProxyAPI) SystemInfo(ctx context.Context) (json.RawMessage, error) {
	ret := m.Called(ctx)

	var info json.RawMessage
	if v := ret.Get(0); v != nil {
		info = v.(json.RawMessage)
	}

	return info, ret.Error(1)
}

// ProxyService is a mock of proxy.Interface.
type ProxyService struct {
	mock.Mock
}

// NewProxyService creates a mock that asserts its expectations on cleanup.
func NewProxyService(t testingT) *ProxyService {
	m := &ProxyService{}
	register(&m.Mock, t)

	return m
}

func (m *ProxyService) ListWatchers(ctx context.Context) ([]models.WatcherSummary, error) {
	ret := m.Called(ctx)

	var w []models.WatcherSummary
	if v := ret.Get(0); v != nil {
		w = v.([]models.WatcherSummary)
	}

	return w, ret.Error(1)
}

func (m *ProxyService) GetWatcher(ctx context.Context, id string) (*models.RemoteWatcherDetail, error) {
	ret := m.Called(ctx, id)

	var d *models.RemoteWatcherDetail
	if v := ret.Get(0); v != nil {
		d = v.(*models.RemoteWatcherDetail)
	}

	return d, ret.Error(1)
}

func (m *ProxyService) Preview(ctx context.Context, id string) (*string, error) {
	ret := m.Called(ctx, id)

	var p *string
	if v := ret.Get(0); v != nil {
		p = v.(*string)
	}

	return p, ret.Error(1)
}

func (m *ProxyService) Snapshot(ctx context.Context, id, timestamp string) (string, error) {
	ret := m.Called(ctx, id, timestamp)

	return ret.String(0), ret.Error(1)
}

func (m *ProxyService) Diff(ctx context.Context, id, timestamp string) (string, error) {
	ret := m.Called(ctx, id, timestamp)

	return ret.String(0), ret.Error(1)
}

func (m *ProxyService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ProxyService) Trigger(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ProxyService) SystemInfo(ctx context.Context) (json.RawMessage, error) {
	ret := m.Called(ctx)

	var info json.RawMessage
	if v := ret.Get(0); v != nil {
		info = v.(json.RawMessage)
	}

	return info, ret.Error(1)
}
