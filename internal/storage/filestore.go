package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	productsFile  = "products.json"
	homeFile      = "home.json"
	inquiriesFile = "inquiries.json"
)

// FileStorage keeps every collection in its own JSON document, read and
// rewritten whole on each call. Writes go through a temp file and rename.
type FileStorage struct {
	dir    string
	mu     sync.Mutex
	now    func() time.Time
	logger *zap.Logger
}

func NewFileStorage(dir string, logger *zap.Logger) (*FileStorage, error) {
	const operation = "storage.NewFileStorage"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: create %s: %w", operation, dir, err)
	}

	logger.Info("Using file storage", zap.String("dir", dir))
	return &FileStorage{dir: dir, now: time.Now, logger: logger}, nil
}

func (s *FileStorage) Close() error { return nil }

func readCollection[T any](dir, name string) ([]T, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return items, nil
}

func writeCollection[T any](dir, name string, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *FileStorage) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Product](s.dir, productsFile)
	if err != nil {
		return nil, fmt.Errorf("storage.ListProducts: %w", err)
	}
	if !activeOnly {
		return items, nil
	}
	out := items[:0]
	for _, p := range items {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *FileStorage) GetProduct(ctx context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Product](s.dir, productsFile)
	if err != nil {
		return Product{}, fmt.Errorf("storage.GetProduct: %w", err)
	}
	for _, p := range items {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("storage.GetProduct: product %s: %w", id, ErrNotFound)
}

func (s *FileStorage) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Product](s.dir, productsFile)
	if err != nil {
		return Product{}, fmt.Errorf("storage.GetProductBySlug: %w", err)
	}
	for _, p := range items {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("storage.GetProductBySlug: product %s: %w", slug, ErrNotFound)
}

func (s *FileStorage) UpsertProduct(ctx context.Context, p Product) (Product, error) {
	const operation = "storage.UpsertProduct"

	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if err := p.Validate(); err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Product](s.dir, productsFile)
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}

	now := s.now().UTC()
	p.UpdatedAt = now

	idx := -1
	for i := range items {
		if items[i].Slug == p.Slug {
			idx = i
			break
		}
	}

	if idx >= 0 {
		prev := items[idx]
		p.ID = prev.ID
		p.Active = prev.Active
		p.CreatedAt = prev.CreatedAt
		if p.Image == "" {
			p.Image = prev.Image
		}
		items[idx] = p
	} else {
		p.ID = newID()
		p.Active = true
		p.CreatedAt = now
		items = append(items, p)
	}

	if err := writeCollection(s.dir, productsFile, items); err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}
	return p, nil
}

func (s *FileStorage) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	const operation = "storage.UpdateProduct"

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Product](s.dir, productsFile)
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Product{}, fmt.Errorf("%s: product %s: %w", operation, id, ErrNotFound)
	}

	next := items[idx]
	patch.Apply(&next)
	if err := next.Validate(); err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}
	for i := range items {
		if i != idx && items[i].Slug == next.Slug {
			return Product{}, fmt.Errorf("%s: slug %q: %w", operation, next.Slug, ErrConflict)
		}
	}
	next.UpdatedAt = s.now().UTC()
	items[idx] = next

	if err := writeCollection(s.dir, productsFile, items); err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}
	return next, nil
}

func (s *FileStorage) DeleteProduct(ctx context.Context, id string) (Product, error) {
	const operation = "storage.DeleteProduct"

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Product](s.dir, productsFile)
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}
	for i, p := range items {
		if p.ID != id {
			continue
		}
		items = append(items[:i], items[i+1:]...)
		if err := writeCollection(s.dir, productsFile, items); err != nil {
			return Product{}, fmt.Errorf("%s: %w", operation, err)
		}
		return p, nil
	}
	return Product{}, fmt.Errorf("%s: product %s: %w", operation, id, ErrNotFound)
}

func sortHomeImages(items []HomeImage) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func (s *FileStorage) ListHomeImages(ctx context.Context, activeOnly bool) ([]HomeImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[HomeImage](s.dir, homeFile)
	if err != nil {
		return nil, fmt.Errorf("storage.ListHomeImages: %w", err)
	}
	if activeOnly {
		out := items[:0]
		for _, img := range items {
			if img.Active {
				out = append(out, img)
			}
		}
		items = out
	}
	sortHomeImages(items)
	return items, nil
}

func (s *FileStorage) CreateHomeImage(ctx context.Context, img HomeImage) (HomeImage, error) {
	const operation = "storage.CreateHomeImage"

	if img.Src == "" {
		return HomeImage{}, fmt.Errorf("%s: empty src", operation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[HomeImage](s.dir, homeFile)
	if err != nil {
		return HomeImage{}, fmt.Errorf("%s: %w", operation, err)
	}

	if img.ID == "" {
		img.ID = newID()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = s.now().UTC()
	}
	if img.IsHero {
		for i := range items {
			items[i].IsHero = false
		}
	}
	items = append(items, img)

	if err := writeCollection(s.dir, homeFile, items); err != nil {
		return HomeImage{}, fmt.Errorf("%s: %w", operation, err)
	}
	return img, nil
}

func (s *FileStorage) UpdateHomeImage(ctx context.Context, id string, patch HomeImagePatch) (HomeImage, error) {
	const operation = "storage.UpdateHomeImage"

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[HomeImage](s.dir, homeFile)
	if err != nil {
		return HomeImage{}, fmt.Errorf("%s: %w", operation, err)
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return HomeImage{}, fmt.Errorf("%s: image %s: %w", operation, id, ErrNotFound)
	}

	if patch.IsHero != nil && *patch.IsHero {
		for i := range items {
			items[i].IsHero = false
		}
	}
	patch.Apply(&items[idx])

	if err := writeCollection(s.dir, homeFile, items); err != nil {
		return HomeImage{}, fmt.Errorf("%s: %w", operation, err)
	}
	return items[idx], nil
}

func (s *FileStorage) DeleteHomeImage(ctx context.Context, id string) (HomeImage, error) {
	const operation = "storage.DeleteHomeImage"

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[HomeImage](s.dir, homeFile)
	if err != nil {
		return HomeImage{}, fmt.Errorf("%s: %w", operation, err)
	}
	for i, img := range items {
		if img.ID != id {
			continue
		}
		items = append(items[:i], items[i+1:]...)
		if err := writeCollection(s.dir, homeFile, items); err != nil {
			return HomeImage{}, fmt.Errorf("%s: %w", operation, err)
		}
		return img, nil
	}
	return HomeImage{}, fmt.Errorf("%s: image %s: %w", operation, id, ErrNotFound)
}

func (s *FileStorage) SaveInquiry(ctx context.Context, in Inquiry) (Inquiry, error) {
	const operation = "storage.SaveInquiry"

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Inquiry](s.dir, inquiriesFile)
	if err != nil {
		return Inquiry{}, fmt.Errorf("%s: %w", operation, err)
	}

	now := s.now().UTC()
	in.ID = newID()
	in.Status = StatusNew
	in.CreatedAt = now
	in.UpdatedAt = now
	items = append(items, in)

	if err := writeCollection(s.dir, inquiriesFile, items); err != nil {
		return Inquiry{}, fmt.Errorf("%s: %w", operation, err)
	}
	return in, nil
}

func (s *FileStorage) GetInquiry(ctx context.Context, id string) (Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Inquiry](s.dir, inquiriesFile)
	if err != nil {
		return Inquiry{}, fmt.Errorf("storage.GetInquiry: %w", err)
	}
	for _, in := range items {
		if in.ID == id {
			return in, nil
		}
	}
	return Inquiry{}, fmt.Errorf("storage.GetInquiry: inquiry %s: %w", id, ErrNotFound)
}

func (s *FileStorage) ListInquiries(ctx context.Context, status InquiryStatus) ([]Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Inquiry](s.dir, inquiriesFile)
	if err != nil {
		return nil, fmt.Errorf("storage.ListInquiries: %w", err)
	}

	out := make([]Inquiry, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if status == "" || items[i].Status == status {
			out = append(out, items[i])
		}
	}
	return out, nil
}

func (s *FileStorage) UpdateInquiryStatus(ctx context.Context, id string, status InquiryStatus) (Inquiry, error) {
	const operation = "storage.UpdateInquiryStatus"

	if !status.Valid() {
		return Inquiry{}, fmt.Errorf("%s: %q: %w", operation, status, ErrInvalidStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Inquiry](s.dir, inquiriesFile)
	if err != nil {
		return Inquiry{}, fmt.Errorf("%s: %w", operation, err)
	}
	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i].Status = status
		items[i].UpdatedAt = s.now().UTC()
		if err := writeCollection(s.dir, inquiriesFile, items); err != nil {
			return Inquiry{}, fmt.Errorf("%s: %w", operation, err)
		}
		return items[i], nil
	}
	return Inquiry{}, fmt.Errorf("%s: inquiry %s: %w", operation, id, ErrNotFound)
}

func (s *FileStorage) InquiryStatistics(ctx context.Context, now time.Time) (InquiryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := readCollection[Inquiry](s.dir, inquiriesFile)
	if err != nil {
		return InquiryStats{}, fmt.Errorf("storage.InquiryStatistics: %w", err)
	}

	day, week, month := statsWindows(now)
	stats := InquiryStats{StatusCounts: make(map[InquiryStatus]int)}
	for _, in := range items {
		stats.Total++
		stats.TotalValue += in.CartTotal
		if !in.CreatedAt.Before(day) {
			stats.Today++
		}
		if !in.CreatedAt.Before(week) {
			stats.Week++
		}
		if !in.CreatedAt.Before(month) {
			stats.Month++
		}
		stats.StatusCounts[in.Status]++
	}
	return stats, nil
}
