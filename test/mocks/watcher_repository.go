package mocks

import (
	"context"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/stretchr/testify/mock"
)

// WatcherRepository is a mock of sqlite.WatcherRepository.
type WatcherRepository struct {
	mock.Mock
}

// NewWatcherRepository creates a mock that asserts its expectations on cleanup.
func NewWatcherRepository(t testingT) *WatcherRepository {
	m := &WatcherRepository{}
	register(&m.Mock, t)

	return m
}

func (m *WatcherRepository) UpsertWatcher(
	ctx context.Context, url, title, watcherUUID string,
) (*models.Watcher, bool, error) {
	ret := m.Called(ctx, url, title, watcherUUID)

	var w *models.Watcher
	if v := ret.Get(0); v != nil {
		w = v.(*models.Watcher)
	}

	return w, ret.Bool(1), ret.Error(2)
}

func (m *WatcherRepository) AddChange(ctx context.Context, change *models.Change) (int64, error) {
	ret := m.Called(ctx, change)

	return ret.Get(0).(int64), ret.Error(1)
}

func (m *WatcherRepository) ListWatchers(ctx context.Context) ([]models.WatcherWithStats, error) {
	ret := m.Called(ctx)

	var list []models.WatcherWithStats
	if v := ret.Get(0); v != nil {
		list = v.([]models.WatcherWithStats)
	}

	return list, ret.Error(1)
}

func (m *WatcherRepository) GetWatcher(ctx context.Context, id int64) (*models.WatcherDetail, error) {
	ret := m.Called(ctx, id)

	var d *models.WatcherDetail
	if v := ret.Get(0); v != nil {
		d = v.(*models.WatcherDetail)
	}

	return d, ret.Error(1)
}

func (m *WatcherRepository) DeleteWatcher(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *WatcherRepository) GetChange(ctx context.Context, id int64) (*models.Change, error) {
	ret := m.Called(ctx, id)

	var c *models.Change
	if v := ret.Get(0); v != nil {
		c = v.(*models.Change)
	}

	return c, ret.Error(1)
}

// SubscriptionRepository is a mock of sqlite.SubscriptionRepository.
type SubscriptionRepository struct {
	mock.Mock
}

// NewSubscriptionRepository creates a mock that asserts its expectations on cleanup.
func NewSubscriptionRepository(t testingT) *SubscriptionRepository {
	m := &SubscriptionRepository{}
	register(&m.Mock, t)

	return m
}

func (m *SubscriptionRepository) SubscribeChat(ctx context.Context, chatID int64) (bool, error) {
	ret := m.Called(ctx, chatID)

	return ret.Bool(0), ret.Error(1)
}

func (m *SubscriptionRepository) UnsubscribeChat(ctx context.Context, chatID int64) (bool, error) {
	ret := m.Called(ctx, chatID)

	return ret.Bool(0), ret.Error(1)
}

func (m *SubscriptionRepository) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	ret := m.Called(ctx)

	var ids []int64
	if v := ret.Get(0); v != nil {
		ids = v.([]int64)
	}

	return ids, ret.Error(1)
}
