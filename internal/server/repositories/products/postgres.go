package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db    *sql.DB
	newID func() string
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, newID: uuid.NewString}
}

// Create stores p with its collection links in one transaction and returns
// the new record ID. p is expected to have passed catalog.Validate.
func (r *PostgresRepository) Create(ctx context.Context, p catalog.Product) (string, error) {
	p = p.Clone()
	p.Normalize()

	images, err := json.Marshal(p.Images)
	if err != nil {
		return "", err
	}
	colors, err := json.Marshal(p.Colors)
	if err != nil {
		return "", err
	}
	flags, err := json.Marshal(p.Flags)
	if err != nil {
		return "", err
	}

	id := r.newID()
	collections := dedupe(p.Collections)

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := exists(ctx, tx, "categories", p.Category); err != nil {
			if errors.Is(err, ErrUnknownReference) {
				return &ReferenceError{Field: "category", ID: p.Category}
			}
			return err
		}
		for _, c := range collections {
			if err := exists(ctx, tx, "collections", c); err != nil {
				if errors.Is(err, ErrUnknownReference) {
					return &ReferenceError{Field: "collections", ID: c}
				}
				return err
			}
		}

		query :=
			`INSERT INTO products (id, name, slug, description, images, size, colors, category_id, price, sale_price, flags)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err := tx.ExecContext(ctx, query,
			id, p.Name, p.Slug, p.Description, string(images), p.Size, string(colors),
			p.Category, p.Price, p.SalePrice, string(flags))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrSlugTaken
			}
			return fmt.Errorf("db error: %w", err)
		}

		for _, c := range collections {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO product_collections (product_id, collection_id) VALUES ($1, $2)`, id, c)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRepository) Categories(ctx context.Context) ([]catalog.Reference, error) {
	return r.references(ctx, `SELECT id, name FROM categories ORDER BY name`)
}

func (r *PostgresRepository) Collections(ctx context.Context) ([]catalog.Reference, error) {
	return r.references(ctx, `SELECT id, name FROM collections ORDER BY name`)
}

func (r *PostgresRepository) references(ctx context.Context, query string) ([]catalog.Reference, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []catalog.Reference{}
	for rows.Next() {
		var ref catalog.Reference
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// exists returns ErrUnknownReference when table has no row with id. table is
// always a constant from this file.
func exists(ctx context.Context, db dbx.DBTX, table, id string) error {
	var ok bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !ok {
		return ErrUnknownReference
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
