package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"registration-assistant/internal/domain"

	"github.com/allegro/bigcache/v3"
)

const (
	catalogTTL = 5 * time.Minute
	bannersTTL = 15 * time.Minute

	catalogKey = "catalog"
	bannersKey = "banners"
)

// CatalogService is a process-wide read-through cache over the shop sheet.
// Snapshots are JSON-marshalled into bigcache, so a concurrent read during
// a refresh observes either the old or the new snapshot, never a partial
// one. All sessions share it; the conversation code only reads.
type CatalogService struct {
	store    domain.ShopStore
	products *bigcache.BigCache
	banners  *bigcache.BigCache
	logger   domain.Logger
}

// NewCatalogService creates the service with its two time-boxed caches
func NewCatalogService(store domain.ShopStore, logger domain.Logger) (*CatalogService, error) {
	products, err := bigcache.New(context.Background(), bigcache.DefaultConfig(catalogTTL))
	if err != nil {
		return nil, fmt.Errorf("кеш каталогу: %w", err)
	}
	banners, err := bigcache.New(context.Background(), bigcache.DefaultConfig(bannersTTL))
	if err != nil {
		return nil, fmt.Errorf("кеш банерів: %w", err)
	}

	return &CatalogService{
		store:    store,
		products: products,
		banners:  banners,
		logger:   logger,
	}, nil
}

// Catalog returns the cached product snapshot, falling back to the store
// on a cold cache. An empty catalog is domain.ErrNoItems.
func (s *CatalogService) Catalog(ctx context.Context) ([]domain.Product, error) {
	if data, err := s.products.Get(catalogKey); err == nil {
		var snapshot []domain.Product
		if err := json.Unmarshal(data, &snapshot); err == nil {
			return s.nonEmpty(snapshot)
		}
		s.logger.WithError(err).Warn("Пошкоджений запис у кеші каталогу")
	}

	snapshot, err := s.refreshCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return s.nonEmpty(snapshot)
}

// Banners returns the category banner mapping, read-through like Catalog.
func (s *CatalogService) Banners(ctx context.Context) (map[string]string, error) {
	if data, err := s.banners.Get(bannersKey); err == nil {
		var snapshot map[string]string
		if err := json.Unmarshal(data, &snapshot); err == nil {
			return snapshot, nil
		}
		s.logger.WithError(err).Warn("Пошкоджений запис у кеші банерів")
	}

	return s.refreshBanners(ctx)
}

// Refresh re-fetches both snapshots; the background worker calls this on a
// timer so request-path readers rarely miss.
func (s *CatalogService) Refresh(ctx context.Context) error {
	if _, err := s.refreshCatalog(ctx); err != nil {
		return err
	}
	_, err := s.refreshBanners(ctx)
	return err
}

func (s *CatalogService) refreshCatalog(ctx context.Context) ([]domain.Product, error) {
	snapshot, err := s.store.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("отримання каталогу: %w", err)
	}

	if data, err := json.Marshal(snapshot); err == nil {
		if err := s.products.Set(catalogKey, data); err != nil {
			s.logger.WithError(err).Warn("Не вдалося записати каталог у кеш")
		}
	}
	return snapshot, nil
}

func (s *CatalogService) refreshBanners(ctx context.Context) (map[string]string, error) {
	snapshot, err := s.store.FetchCategoryBanners(ctx)
	if err != nil {
		return nil, fmt.Errorf("отримання банерів: %w", err)
	}

	if data, err := json.Marshal(snapshot); err == nil {
		if err := s.banners.Set(bannersKey, data); err != nil {
			s.logger.WithError(err).Warn("Не вдалося записати банери у кеш")
		}
	}
	return snapshot, nil
}

func (s *CatalogService) nonEmpty(snapshot []domain.Product) ([]domain.Product, error) {
	if len(snapshot) == 0 {
		return nil, domain.ErrNoItems
	}
	return snapshot, nil
}

// PlaceOrder writes one row per cart line to the orders sheet.
func (s *CatalogService) PlaceOrder(ctx context.Context, rows []domain.OrderRow) error {
	if err := s.store.SaveOrderRows(ctx, rows); err != nil {
		s.logger.WithError(err).WithField("rows", len(rows)).Error("Замовлення не збереглося")
		return fmt.Errorf("збереження замовлення: %w", err)
	}

	s.logger.WithField("rows", len(rows)).Success("Замовлення збережено")
	return nil
}
