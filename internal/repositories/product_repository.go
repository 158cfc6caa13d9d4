package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"lengolf_pos_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository defines the interface for catalog lookups needed while
// normalizing order lines. The catalog itself (pricing, search, caching) is
// managed elsewhere.
type ProductRepository interface {
	GetProductsByIDs(productIDs []string) (map[string]models.Product, error)
	GetProductByID(productID string) (*models.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// GetProductsByIDs fetches a batch of products in one query. IDs with no
// matching product are simply absent from the returned map.
func (r *productRepository) GetProductsByIDs(productIDs []string) (map[string]models.Product, error) {
	products := make(map[string]models.Product, len(productIDs))
	if len(productIDs) == 0 {
		return products, nil
	}

	query := `SELECT p.id, p.name, c.name AS category_name
	          FROM products p
	          LEFT JOIN product_categories c ON p.category_id = c.id
	          WHERE p.id = ANY($1)`
	rows, err := r.db.Query(query, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying products by IDs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryName); err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products[p.ID] = p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) GetProductByID(productID string) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT p.id, p.name, c.name AS category_name
	          FROM products p
	          LEFT JOIN product_categories c ON p.category_id = c.id
	          WHERE p.id = $1`
	err := r.db.QueryRow(query, productID).Scan(&product.ID, &product.Name, &product.CategoryName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %s: %v", ErrDatabaseError, productID, err)
	}
	return product, nil
}
