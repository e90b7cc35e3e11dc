package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abgdnv/ordermanagement/internal/domain"
	apperrors "github.com/abgdnv/ordermanagement/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const foreignKeyViolation = "23503"

const (
	productColumns = `id, name, price, creation_date, deletion_flag`

	insertProduct = `INSERT INTO products (name, price, creation_date, deletion_flag)
		VALUES ($1, $2, $3, $4) RETURNING ` + productColumns
	selectProductByID    = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	selectProductsByIDs  = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	selectActiveProducts = `SELECT ` + productColumns + ` FROM products WHERE deletion_flag = FALSE ORDER BY id`
	updateProduct        = `UPDATE products SET name = $2, price = $3 WHERE id = $1 RETURNING ` + productColumns
	softDeleteProduct    = `UPDATE products SET deletion_flag = TRUE WHERE id = $1`

	orderColumns = `o.id, o.buyer_email, o.order_placed_time`

	insertOrder        = `INSERT INTO orders (buyer_email, order_placed_time) VALUES ($1, $2) RETURNING id`
	insertOrderProduct = `INSERT INTO order_products (order_id, position, product_id) VALUES ($1, $2, $3)`
	selectOrderByID    = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	selectOrders       = `SELECT ` + orderColumns + ` FROM orders o ORDER BY o.id`
	selectOrdersWindow = `SELECT ` + orderColumns + ` FROM orders o
		WHERE o.order_placed_time >= $1 AND o.order_placed_time <= $2 ORDER BY o.id`
	selectOrdersByProduct = `SELECT ` + orderColumns + ` FROM orders o
		WHERE EXISTS (SELECT 1 FROM order_products op WHERE op.order_id = o.id AND op.product_id = $1)
		ORDER BY o.id`
	updateBuyerEmail    = `UPDATE orders o SET buyer_email = $2 WHERE o.id = $1 RETURNING ` + orderColumns
	selectOrderProducts = `SELECT order_id, product_id FROM order_products WHERE order_id = ANY($1) ORDER BY order_id, position`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgBase struct {
	db *pgxpool.Pool
}

// PgProductStore implements ProductStore on PostgreSQL.
type PgProductStore struct {
	pgBase
}

// PgOrderStore implements OrderStore on PostgreSQL.
type PgOrderStore struct {
	pgBase
}

// NewPgProductStore creates a ProductStore backed by a PostgreSQL connection pool.
func NewPgProductStore(dbp *pgxpool.Pool) *PgProductStore {
	return &PgProductStore{pgBase{db: dbp}}
}

// NewPgOrderStore creates an OrderStore backed by a PostgreSQL connection pool.
func NewPgOrderStore(dbp *pgxpool.Pool) *PgOrderStore {
	return &PgOrderStore{pgBase{db: dbp}}
}

func (p *PgProductStore) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	row := p.db.QueryRow(ctx, insertProduct, product.Name, product.Price, product.CreationDate, product.DeletionFlag)
	created, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

func (p *PgProductStore) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	found, err := scanProduct(p.db.QueryRow(ctx, selectProductByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, apperrors.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	return found, nil
}

func (p *PgProductStore) FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	return findProductsByIDs(ctx, p.db, ids)
}

func (p *PgProductStore) FindAllActive(ctx context.Context) ([]domain.Product, error) {
	rows, err := p.db.Query(ctx, selectActiveProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return list, nil
}

func (p *PgProductStore) Update(ctx context.Context, id int64, name string, price decimal.Decimal) (domain.Product, error) {
	updated, err := scanProduct(p.db.QueryRow(ctx, updateProduct, id, name, price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, apperrors.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return updated, nil
}

func (p *PgProductStore) SoftDelete(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, softDeleteProduct, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProductNotFound
	}
	return nil
}

func (p *PgOrderStore) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	created := o
	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		// resolve references first so the caller learns which id is missing
		if _, err := findProductsByIDs(ctx, tx, o.ProductIDs); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, insertOrder, o.BuyerEmail, o.PlacedAt).Scan(&created.ID); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		batch := &pgx.Batch{}
		for pos, pid := range o.ProductIDs {
			batch.Queue(insertOrderProduct, created.ID, pos, pid)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return fmt.Errorf("order %d: %w", created.ID, apperrors.ErrProductReferenceNotFound)
			}
			return fmt.Errorf("failed to associate products with order: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return domain.Order{}, txErr
	}
	created.ProductIDs = append([]int64{}, o.ProductIDs...)
	return created, nil
}

func (p *PgOrderStore) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	orders, err := p.queryOrders(ctx, selectOrderByID, id)
	if err != nil {
		return domain.Order{}, err
	}
	if len(orders) == 0 {
		return domain.Order{}, apperrors.ErrOrderNotFound
	}
	return orders[0], nil
}

func (p *PgOrderStore) FindAll(ctx context.Context) ([]domain.Order, error) {
	return p.queryOrders(ctx, selectOrders)
}

func (p *PgOrderStore) FindPlacedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	return p.queryOrders(ctx, selectOrdersWindow, start, end)
}

func (p *PgOrderStore) FindByProductID(ctx context.Context, productID int64) ([]domain.Order, error) {
	return p.queryOrders(ctx, selectOrdersByProduct, productID)
}

func (p *PgOrderStore) UpdateBuyerEmail(ctx context.Context, id int64, buyerEmail string) (domain.Order, error) {
	orders, err := p.queryOrders(ctx, updateBuyerEmail, id, buyerEmail)
	if err != nil {
		return domain.Order{}, err
	}
	if len(orders) == 0 {
		return domain.Order{}, apperrors.ErrOrderNotFound
	}
	return orders[0], nil
}

// queryOrders runs an order query and attaches each order's product sequence.
func (p *PgOrderStore) queryOrders(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		var o domain.Order
		if err := row.Scan(&o.ID, &o.BuyerEmail, &o.PlacedAt); err != nil {
			return o, err
		}
		o.PlacedAt = o.PlacedAt.UTC()
		o.ProductIDs = []int64{}
		return o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}
	linkRows, err := p.db.Query(ctx, selectOrderProducts, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query order products: %w", err)
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var orderID, productID int64
		if err := linkRows.Scan(&orderID, &productID); err != nil {
			return nil, fmt.Errorf("failed to scan order products: %w", err)
		}
		i := index[orderID]
		orders[i].ProductIDs = append(orders[i].ProductIDs, productID)
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order products: %w", err)
	}
	return orders, nil
}

func (p *pgBase) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTransactionBegin, err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w: %w", apperrors.ErrTransactionRollback, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTransactionCommit, err)
	}
	return nil
}

// findProductsByIDs resolves ids in caller order, keeping duplicates.
func findProductsByIDs(ctx context.Context, q querier, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	rows, err := q.Query(ctx, selectProductsByIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	found, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	byID := make(map[int64]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	list := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, &apperrors.MissingProductError{ProductID: id}
		}
		list = append(list, p)
	}
	return list, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CreationDate, &p.DeletionFlag); err != nil {
		return domain.Product{}, err
	}
	p.CreationDate = p.CreationDate.UTC()
	return p, nil
}
