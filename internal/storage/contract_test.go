package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ph-studio/internal/storage"
)

func ptr[T any](v T) *T { return &v }

// runContract exercises behaviour every driver must share.
func runContract(t *testing.T, s storage.Storage) {
	t.Helper()

	t.Run("products", func(t *testing.T) { testProducts(t, s) })
	t.Run("home images", func(t *testing.T) { testHomeImages(t, s) })
	t.Run("inquiries", func(t *testing.T) { testInquiries(t, s) })
}

func testProducts(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	first, err := s.UpsertProduct(ctx, storage.Product{
		Title: "Ключодържател",
		Slug:  "klyuchodarzhatel",
		Price: 12,
		Image: "/uploads/klyuchodarzhatel-1.png",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.True(t, first.Active)
	assert.Equal(t, storage.DefaultCurrency, first.Currency)

	again, err := s.UpsertProduct(ctx, storage.Product{
		Title: "Ключодържател с име",
		Slug:  "klyuchodarzhatel",
		Price: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 15.0, again.Price)
	assert.Equal(t, "/uploads/klyuchodarzhatel-1.png", again.Image)

	bySlug, err := s.GetProductBySlug(ctx, "klyuchodarzhatel")
	require.NoError(t, err)
	assert.Equal(t, first.ID, bySlug.ID)
	_, err = s.GetProductBySlug(ctx, "nyama-takav")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UpsertProduct(ctx, storage.Product{Title: "Без цена", Slug: "bez-cena"})
	assert.ErrorIs(t, err, storage.ErrInvalidProduct)

	second, err := s.UpsertProduct(ctx, storage.Product{Title: "Ваза", Slug: "vaza", Price: 40})
	require.NoError(t, err)

	all, err := s.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hidden, err := s.UpdateProduct(ctx, second.ID, storage.ProductPatch{Active: ptr(false)})
	require.NoError(t, err)
	assert.False(t, hidden.Active)

	active, err := s.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	_, err = s.UpdateProduct(ctx, second.ID, storage.ProductPatch{Slug: ptr("klyuchodarzhatel")})
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.UpdateProduct(ctx, "missing", storage.ProductPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	deleted, err := s.DeleteProduct(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/klyuchodarzhatel-1.png", deleted.Image)

	_, err = s.GetProduct(ctx, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.DeleteProduct(ctx, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testHomeImages(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	a, err := s.CreateHomeImage(ctx, storage.HomeImage{Src: "/home/home-a.png", Order: 2, Active: true})
	require.NoError(t, err)
	b, err := s.CreateHomeImage(ctx, storage.HomeImage{Src: "/home/home-b.png", Order: 1, Active: true, IsHero: true})
	require.NoError(t, err)
	c, err := s.CreateHomeImage(ctx, storage.HomeImage{Src: "/home/home-c.png", Order: 3, Active: true})
	require.NoError(t, err)

	images, err := s.ListHomeImages(ctx, true)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, []string{b.ID, a.ID, c.ID}, []string{images[0].ID, images[1].ID, images[2].ID})

	_, err = s.UpdateHomeImage(ctx, c.ID, storage.HomeImagePatch{IsHero: ptr(true)})
	require.NoError(t, err)

	images, err = s.ListHomeImages(ctx, false)
	require.NoError(t, err)
	heroes := 0
	for _, img := range images {
		if img.IsHero {
			heroes++
			assert.Equal(t, c.ID, img.ID)
		}
	}
	assert.Equal(t, 1, heroes)

	_, err = s.UpdateHomeImage(ctx, a.ID, storage.HomeImagePatch{Active: ptr(false), Title: ptr("Стара")})
	require.NoError(t, err)

	images, err = s.ListHomeImages(ctx, true)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	hero, gallery := storage.Hero(images)
	require.NotNil(t, hero)
	assert.Equal(t, c.ID, hero.ID)
	require.Len(t, gallery, 1)
	assert.Equal(t, b.ID, gallery[0].ID)

	removed, err := s.DeleteHomeImage(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/home/home-a.png", removed.Src)

	_, err = s.UpdateHomeImage(ctx, a.ID, storage.HomeImagePatch{Order: ptr(1)})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testInquiries(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	first, err := s.SaveInquiry(ctx, storage.Inquiry{
		Name:      "Иван",
		Email:     "ivan@example.com",
		Service:   "3D печат",
		Message:   "Нужни са ми 3 броя.",
		CartTotal: 136.87,
	})
	require.NoError(t, err)
	assert.Equal(t, storage.StatusNew, first.Status)
	assert.NotEmpty(t, first.ID)

	second, err := s.SaveInquiry(ctx, storage.Inquiry{
		Name:      "Мария",
		Email:     "maria@example.com",
		Service:   "Лазерно гравиране",
		Message:   "Гравиране на дъска.",
		CartTotal: 26,
	})
	require.NoError(t, err)

	list, err := s.ListInquiries(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	updated, err := s.UpdateInquiryStatus(ctx, first.ID, storage.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusProcessing, updated.Status)

	processing, err := s.ListInquiries(ctx, storage.StatusProcessing)
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, first.ID, processing[0].ID)

	_, err = s.UpdateInquiryStatus(ctx, first.ID, "lost")
	assert.ErrorIs(t, err, storage.ErrInvalidStatus)

	_, err = s.UpdateInquiryStatus(ctx, "missing", storage.StatusCompleted)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.GetInquiry(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Мария", got.Name)

	stats, err := s.InquiryStatistics(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.InDelta(t, 162.87, stats.TotalValue, 1e-9)
	assert.Equal(t, 2, stats.Week)
	assert.Equal(t, 2, stats.Month)
	assert.Equal(t, 1, stats.StatusCounts[storage.StatusNew])
	assert.Equal(t, 1, stats.StatusCounts[storage.StatusProcessing])
}
