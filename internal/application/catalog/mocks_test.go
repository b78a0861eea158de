package catalog

import (
	"context"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockGoodsRepository is a mock implementation of GoodsRepository
type MockGoodsRepository struct {
	mock.Mock
}

func (m *MockGoodsRepository) goods(args mock.Arguments) (*catalog.Goods, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Goods), args.Error(1)
}

func (m *MockGoodsRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Goods, error) {
	return m.goods(m.Called(ctx, id))
}

func (m *MockGoodsRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Goods, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Goods), args.Error(1)
}

func (m *MockGoodsRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Goods, error) {
	return m.goods(m.Called(ctx, slug))
}

func (m *MockGoodsRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Goods, error) {
	return m.goods(m.Called(ctx, sku))
}

func (m *MockGoodsRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*catalog.Goods, error) {
	return m.goods(m.Called(ctx, sourceURL))
}

func (m *MockGoodsRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Goods, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Goods), args.Error(1)
}

func (m *MockGoodsRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGoodsRepository) FindVisible(ctx context.Context, siteCode string, filter shared.Filter) ([]catalog.Goods, error) {
	args := m.Called(ctx, siteCode, filter)
	return args.Get(0).([]catalog.Goods), args.Error(1)
}

func (m *MockGoodsRepository) CountVisible(ctx context.Context, siteCode string, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, siteCode, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGoodsRepository) Save(ctx context.Context, goods *catalog.Goods) error {
	return m.Called(ctx, goods).Error(0)
}

func (m *MockGoodsRepository) SaveWithLock(ctx context.Context, goods *catalog.Goods) error {
	return m.Called(ctx, goods).Error(0)
}

func (m *MockGoodsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGoodsRepository) DeductStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *MockGoodsRepository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *MockGoodsRepository) SaveImage(ctx context.Context, image *catalog.Image) error {
	return m.Called(ctx, image).Error(0)
}

func (m *MockGoodsRepository) DeleteImage(ctx context.Context, goodsID, imageID uuid.UUID) error {
	return m.Called(ctx, goodsID, imageID).Error(0)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) category(args mock.Arguments) (*catalog.Category, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	return m.category(m.Called(ctx, id))
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	return m.category(m.Called(ctx, slug))
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]catalog.Category, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) CountGoods(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockImageStorage is a mock implementation of ImageStorage
type MockImageStorage struct {
	mock.Mock
}

func (m *MockImageStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockImageStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockImageStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockImageStorage) PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockImageStorage) URL(key string) string {
	return m.Called(key).String(0)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}
