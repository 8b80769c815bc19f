package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupmeal/groupmeal-backend/internal/domain/menu"
	"github.com/groupmeal/groupmeal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const restaurantColumns = `id, name, source, source_url, address, menu, menu_updated_at, created_at, updated_at`

type restaurantRepositoryImpl struct {
	db *database.DB
}

func NewRestaurantRepository(db *database.DB) menu.RestaurantRepository {
	return &restaurantRepositoryImpl{db: db}
}

func scanRestaurant(row pgx.Row) (menu.Restaurant, error) {
	var r menu.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Source, &r.SourceURL, &r.Address, &r.Menu, &r.MenuUpdatedAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// GetByID implements menu.RestaurantRepository.
func (r *restaurantRepositoryImpl) GetByID(ctx context.Context, id string) (menu.Restaurant, error) {
	q := GetQuerier(ctx, r.db)

	rest, err := scanRestaurant(q.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return menu.Restaurant{}, menu.ErrRestaurantNotFound
		}
		return menu.Restaurant{}, fmt.Errorf("failed to get restaurant: %w", err)
	}
	return rest, nil
}

// FindByNameWithMenu implements menu.RestaurantRepository.
func (r *restaurantRepositoryImpl) FindByNameWithMenu(ctx context.Context, name string) (menu.Restaurant, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + restaurantColumns + `
		FROM restaurants
		WHERE LOWER(name) = LOWER($1)
			AND menu IS NOT NULL
			AND (jsonb_array_length(COALESCE(menu->'items', '[]'::jsonb)) > 0
				OR jsonb_array_length(COALESCE(menu->'categories', '[]'::jsonb)) > 0)
		ORDER BY menu_updated_at DESC NULLS LAST
		LIMIT 1`

	rest, err := scanRestaurant(q.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return menu.Restaurant{}, menu.ErrRestaurantNotFound
		}
		return menu.Restaurant{}, fmt.Errorf("failed to find restaurant by name: %w", err)
	}
	return rest, nil
}

// Upsert implements menu.RestaurantRepository.
func (r *restaurantRepositoryImpl) Upsert(ctx context.Context, rest menu.Restaurant) (menu.Restaurant, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO restaurants (id, name, source, source_url, address, menu, menu_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			source = EXCLUDED.source,
			source_url = COALESCE(EXCLUDED.source_url, restaurants.source_url),
			address = COALESCE(EXCLUDED.address, restaurants.address),
			menu = COALESCE(EXCLUDED.menu, restaurants.menu),
			menu_updated_at = COALESCE(EXCLUDED.menu_updated_at, restaurants.menu_updated_at),
			updated_at = NOW()
		RETURNING ` + restaurantColumns

	saved, err := scanRestaurant(q.QueryRow(ctx, query,
		rest.ID, rest.Name, string(rest.Source), rest.SourceURL, rest.Address, rest.Menu, rest.MenuUpdatedAt,
	))
	if err != nil {
		return menu.Restaurant{}, fmt.Errorf("failed to upsert restaurant: %w", err)
	}
	return saved, nil
}

// List implements menu.RestaurantRepository.
func (r *restaurantRepositoryImpl) List(ctx context.Context) ([]menu.Restaurant, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer rows.Close()

	restaurants := make([]menu.Restaurant, 0)
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		restaurants = append(restaurants, rest)
	}
	return restaurants, rows.Err()
}
