package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"ph-studio/internal/config"
)

const (
	productColumns = `id, title, slug, description, dimensions, price, currency,
		promo_percent, promo_until, buy_url, image, active, created_at, updated_at`
	homeColumns    = `id, title, src, sort_order, active, is_hero, created_at`
	inquiryColumns = `id, name, email, phone, service, dimensions, message,
		cart_summary, cart_total, attachment_name, status, created_at, updated_at`
)

const uniqueViolation = "23505"

type PostgresStorage struct {
	db     *sqlx.DB
	now    func() time.Time
	logger *zap.Logger
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	var db *sqlx.DB

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...", zap.String("host", cfg.Host), zap.String("db", cfg.Name))

	err := backoff.RetryNotify(
		func() error {
			conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err = conn.PingContext(ctx); err != nil {
				conn.Close()
				return fmt.Errorf("ping: %w", err)
			}
			db = conn
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{db: db, now: time.Now, logger: logger}, nil
}

// DB exposes the pool for migrations.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

func conflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", pqErr.Constraint, ErrConflict)
	}
	return err
}

// inTx runs fn inside a transaction and rolls back on any error.
func (s *PostgresStorage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

func (s *PostgresStorage) ListProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at`

	var products []Product
	if err := s.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("storage.ListProducts: %w", err)
	}
	return products, nil
}

func (s *PostgresStorage) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return Product{}, fmt.Errorf("storage.GetProduct: %w", notFound(err, "product", id))
	}
	return p, nil
}

func (s *PostgresStorage) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	var p Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	if err != nil {
		return Product{}, fmt.Errorf("storage.GetProductBySlug: %w", notFound(err, "product", slug))
	}
	return p, nil
}

func (s *PostgresStorage) UpsertProduct(ctx context.Context, p Product) (Product, error) {
	const operation = "storage.UpsertProduct"

	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if err := p.Validate(); err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}

	const query = `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, $12, $12)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			dimensions = EXCLUDED.dimensions,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			promo_percent = EXCLUDED.promo_percent,
			promo_until = EXCLUDED.promo_until,
			buy_url = EXCLUDED.buy_url,
			image = COALESCE(NULLIF(EXCLUDED.image, ''), products.image),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + productColumns

	var saved Product
	err := s.db.GetContext(ctx, &saved, query,
		newID(),
		p.Title,
		p.Slug,
		p.Desc,
		p.Dimensions,
		p.Price,
		p.Currency,
		p.PromoPercent,
		p.PromoUntil,
		p.BuyURL,
		p.Image,
		s.now().UTC(),
	)
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}
	return saved, nil
}

func (s *PostgresStorage) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	const operation = "storage.UpdateProduct"

	var next Product
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &next,
			`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id); err != nil {
			return notFound(err, "product", id)
		}

		patch.Apply(&next)
		if err := next.Validate(); err != nil {
			return err
		}
		next.UpdatedAt = s.now().UTC()

		_, err := tx.NamedExecContext(ctx, `
			UPDATE products SET
				title = :title, slug = :slug, description = :description,
				dimensions = :dimensions, price = :price, currency = :currency,
				promo_percent = :promo_percent, promo_until = :promo_until,
				buy_url = :buy_url, active = :active, updated_at = :updated_at
			WHERE id = :id`, next)
		return conflict(err)
	})
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}
	return next, nil
}

func (s *PostgresStorage) DeleteProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.db.GetContext(ctx, &p, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns, id)
	if err != nil {
		return Product{}, fmt.Errorf("storage.DeleteProduct: %w", notFound(err, "product", id))
	}
	return p, nil
}

func (s *PostgresStorage) ListHomeImages(ctx context.Context, activeOnly bool) ([]HomeImage, error) {
	query := `SELECT ` + homeColumns + ` FROM home_images`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY sort_order, created_at`

	var images []HomeImage
	if err := s.db.SelectContext(ctx, &images, query); err != nil {
		return nil, fmt.Errorf("storage.ListHomeImages: %w", err)
	}
	return images, nil
}

func (s *PostgresStorage) CreateHomeImage(ctx context.Context, img HomeImage) (HomeImage, error) {
	const operation = "storage.CreateHomeImage"

	if img.Src == "" {
		return HomeImage{}, fmt.Errorf("%s: empty src", operation)
	}
	if img.ID == "" {
		img.ID = newID()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = s.now().UTC()
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if img.IsHero {
			if _, err := tx.ExecContext(ctx, `UPDATE home_images SET is_hero = FALSE WHERE is_hero`); err != nil {
				return err
			}
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO home_images (`+homeColumns+`)
			VALUES (:id, :title, :src, :sort_order, :active, :is_hero, :created_at)`, img)
		return err
	})
	if err != nil {
		return HomeImage{}, fmt.Errorf("%s: %w", operation, err)
	}
	return img, nil
}

func (s *PostgresStorage) UpdateHomeImage(ctx context.Context, id string, patch HomeImagePatch) (HomeImage, error) {
	const operation = "storage.UpdateHomeImage"

	var img HomeImage
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &img,
			`SELECT `+homeColumns+` FROM home_images WHERE id = $1 FOR UPDATE`, id); err != nil {
			return notFound(err, "image", id)
		}

		if patch.IsHero != nil && *patch.IsHero {
			if _, err := tx.ExecContext(ctx,
				`UPDATE home_images SET is_hero = FALSE WHERE is_hero AND id <> $1`, id); err != nil {
				return err
			}
		}
		patch.Apply(&img)

		_, err := tx.NamedExecContext(ctx, `
			UPDATE home_images SET
				title = :title, sort_order = :sort_order, active = :active, is_hero = :is_hero
			WHERE id = :id`, img)
		return err
	})
	if err != nil {
		return HomeImage{}, fmt.Errorf("%s: %w", operation, err)
	}
	return img, nil
}

func (s *PostgresStorage) DeleteHomeImage(ctx context.Context, id string) (HomeImage, error) {
	var img HomeImage
	err := s.db.GetContext(ctx, &img, `DELETE FROM home_images WHERE id = $1 RETURNING `+homeColumns, id)
	if err != nil {
		return HomeImage{}, fmt.Errorf("storage.DeleteHomeImage: %w", notFound(err, "image", id))
	}
	return img, nil
}

func (s *PostgresStorage) SaveInquiry(ctx context.Context, in Inquiry) (Inquiry, error) {
	now := s.now().UTC()
	in.ID = newID()
	in.Status = StatusNew
	in.CreatedAt = now
	in.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO inquiries (`+inquiryColumns+`)
		VALUES (:id, :name, :email, :phone, :service, :dimensions, :message,
			:cart_summary, :cart_total, :attachment_name, :status, :created_at, :updated_at)`, in)
	if err != nil {
		return Inquiry{}, fmt.Errorf("storage.SaveInquiry: %w", err)
	}
	return in, nil
}

func (s *PostgresStorage) GetInquiry(ctx context.Context, id string) (Inquiry, error) {
	var in Inquiry
	err := s.db.GetContext(ctx, &in, `SELECT `+inquiryColumns+` FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return Inquiry{}, fmt.Errorf("storage.GetInquiry: %w", notFound(err, "inquiry", id))
	}
	return in, nil
}

func (s *PostgresStorage) ListInquiries(ctx context.Context, status InquiryStatus) ([]Inquiry, error) {
	const query = `
		SELECT ` + inquiryColumns + `
		FROM inquiries
		WHERE $1::text = '' OR status = $1::text
		ORDER BY created_at DESC, id DESC`

	var items []Inquiry
	if err := s.db.SelectContext(ctx, &items, query, string(status)); err != nil {
		return nil, fmt.Errorf("storage.ListInquiries: %w", err)
	}
	return items, nil
}

func (s *PostgresStorage) UpdateInquiryStatus(ctx context.Context, id string, status InquiryStatus) (Inquiry, error) {
	const operation = "storage.UpdateInquiryStatus"

	if !status.Valid() {
		return Inquiry{}, fmt.Errorf("%s: %q: %w", operation, status, ErrInvalidStatus)
	}

	var in Inquiry
	err := s.db.GetContext(ctx, &in, `
		UPDATE inquiries SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING `+inquiryColumns, string(status), s.now().UTC(), id)
	if err != nil {
		return Inquiry{}, fmt.Errorf("%s: %w", operation, notFound(err, "inquiry", id))
	}
	return in, nil
}

func (s *PostgresStorage) InquiryStatistics(ctx context.Context, now time.Time) (InquiryStats, error) {
	const operation = "storage.InquiryStatistics"

	day, week, month := statsWindows(now)

	var totals struct {
		Total      int     `db:"total"`
		TotalValue float64 `db:"total_value"`
		Today      int     `db:"today"`
		Week       int     `db:"week"`
		Month      int     `db:"month"`
	}
	err := s.db.GetContext(ctx, &totals, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(cart_total), 0) AS total_value,
			COUNT(*) FILTER (WHERE created_at >= $1) AS today,
			COUNT(*) FILTER (WHERE created_at >= $2) AS week,
			COUNT(*) FILTER (WHERE created_at >= $3) AS month
		FROM inquiries`, day, week, month)
	if err != nil {
		return InquiryStats{}, fmt.Errorf("%s: %w", operation, err)
	}

	stats := InquiryStats{
		Total:        totals.Total,
		TotalValue:   totals.TotalValue,
		Today:        totals.Today,
		Week:         totals.Week,
		Month:        totals.Month,
		StatusCounts: make(map[InquiryStatus]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM inquiries GROUP BY status`)
	if err != nil {
		return InquiryStats{}, fmt.Errorf("%s: failed to get status counts: %w", operation, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return InquiryStats{}, fmt.Errorf("%s: failed to scan status count: %w", operation, err)
		}
		stats.StatusCounts[InquiryStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return InquiryStats{}, fmt.Errorf("%s: %w", operation, err)
	}
	return stats, nil
}
