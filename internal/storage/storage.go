// Package storage keeps the shop's catalogue, homepage imagery and customer
// inquiries. Two drivers are available: postgres and flat JSON files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ph-studio/internal/config"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInvalidProduct = errors.New("invalid product")
	ErrInvalidStatus  = errors.New("invalid inquiry status")
)

type ProductStore interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	// UpsertProduct inserts p or replaces the product with the same slug,
	// keeping its id, visibility and creation time. An empty Image keeps the
	// stored one.
	UpsertProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error)
	DeleteProduct(ctx context.Context, id string) (Product, error)
}

type HomeImageStore interface {
	ListHomeImages(ctx context.Context, activeOnly bool) ([]HomeImage, error)
	CreateHomeImage(ctx context.Context, img HomeImage) (HomeImage, error)
	// UpdateHomeImage applies patch; setting IsHero clears it everywhere else.
	UpdateHomeImage(ctx context.Context, id string, patch HomeImagePatch) (HomeImage, error)
	DeleteHomeImage(ctx context.Context, id string) (HomeImage, error)
}

type InquiryStore interface {
	SaveInquiry(ctx context.Context, in Inquiry) (Inquiry, error)
	GetInquiry(ctx context.Context, id string) (Inquiry, error)
	// ListInquiries returns newest first; an empty status lists all.
	ListInquiries(ctx context.Context, status InquiryStatus) ([]Inquiry, error)
	UpdateInquiryStatus(ctx context.Context, id string, status InquiryStatus) (Inquiry, error)
	InquiryStatistics(ctx context.Context, now time.Time) (InquiryStats, error)
}

type Storage interface {
	ProductStore
	HomeImageStore
	InquiryStore
	Close() error
}

// Hero splits active homepage images into the hero and the gallery. The hero
// is the image flagged IsHero, or the first one.
func Hero(images []HomeImage) (hero *HomeImage, gallery []HomeImage) {
	if len(images) == 0 {
		return nil, nil
	}
	idx := 0
	for i := range images {
		if images[i].IsHero {
			idx = i
			break
		}
	}
	h := images[idx]
	gallery = make([]HomeImage, 0, len(images)-1)
	gallery = append(gallery, images[:idx]...)
	gallery = append(gallery, images[idx+1:]...)
	return &h, gallery
}

// Open returns the driver selected by cfg.Driver. Postgres is migrated up
// before it is handed out.
func Open(ctx context.Context, cfg config.StorageConfig, db config.DatabaseConfig, logger *zap.Logger) (Storage, error) {
	const operation = "storage.Open"

	switch cfg.Driver {
	case config.StoragePostgres:
		pg, err := NewPostgresStorage(ctx, db, logger)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		if err := RunMigrations(ctx, pg.DB(), logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		return pg, nil
	case config.StorageFile, "":
		fs, err := NewFileStorage(cfg.DataDir, logger)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", operation, cfg.Driver)
	}
}
