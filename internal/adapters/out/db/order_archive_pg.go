// internal/adapters/out/db/order_archive_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	buyerdom "tcon/internal/domain/buyer"
	cartdom "tcon/internal/domain/cart"
	orderdom "tcon/internal/domain/order"
)

// OrderArchivePG mirrors finalized orders into Postgres for reporting.
// Firestore stays the system of record; this archive is best-effort and the
// checkout flow never fails on it.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS order_archive (
//	  id             TEXT PRIMARY KEY,
//	  buyer_kind     TEXT NOT NULL,
//	  buyer_name     TEXT NOT NULL,
//	  buyer_email    TEXT NOT NULL,
//	  items          JSONB NOT NULL,
//	  total          BIGINT NOT NULL,
//	  payment_method TEXT NOT NULL,
//	  order_time     TIMESTAMPTZ NOT NULL,
//	  archived_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type OrderArchivePG struct {
	DB *sql.DB
}

func NewOrderArchivePG(db *sql.DB) *OrderArchivePG {
	return &OrderArchivePG{DB: db}
}

// Open connects with the given DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("order_archive_pg: dsn is empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("order_archive_pg: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("order_archive_pg: ping: %w", err)
	}
	return db, nil
}

// Archive inserts the order row. A duplicate id is treated as already archived.
func (r *OrderArchivePG) Archive(ctx context.Context, o orderdom.Order) error {
	if r == nil || r.DB == nil {
		return errors.New("order_archive_pg: db is nil")
	}

	items, err := json.Marshal(archiveItems(o.Items))
	if err != nil {
		return fmt.Errorf("order_archive_pg: marshal items: %w", err)
	}

	const q = `
INSERT INTO order_archive (id, buyer_kind, buyer_name, buyer_email, items, total, payment_method, order_time, archived_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING`

	_, err = r.DB.ExecContext(ctx, q,
		o.ID,
		string(o.Buyer.Kind()),
		o.Buyer.Name(),
		o.Buyer.Email(),
		items,
		o.Total,
		string(o.PaymentMethod),
		o.OrderTime,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("order_archive_pg: insert %s: %w", o.ID, err)
	}
	return nil
}

// GetByID reads one archived order row (reporting/debug).
func (r *OrderArchivePG) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	if r == nil || r.DB == nil {
		return orderdom.Order{}, errors.New("order_archive_pg: db is nil")
	}

	const q = `
SELECT id, buyer_kind, buyer_name, buyer_email, items, total, payment_method, order_time
FROM order_archive
WHERE id = $1`

	var (
		oid, kind, name, email, method string
		rawItems                       []byte
		total                          int64
		orderTime                      time.Time
	)
	err := r.DB.QueryRowContext(ctx, q, strings.TrimSpace(id)).
		Scan(&oid, &kind, &name, &email, &rawItems, &total, &method, &orderTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}

	var rows []archiveItem
	if err := json.Unmarshal(rawItems, &rows); err != nil {
		return orderdom.Order{}, fmt.Errorf("order_archive_pg: unmarshal items: %w", err)
	}
	items := make([]cartdom.LineItem, 0, len(rows))
	for _, it := range rows {
		items = append(items, cartdom.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
		})
	}

	b, err := archiveBuyer(kind, name, email)
	if err != nil {
		return orderdom.Order{}, err
	}

	pm, err := orderdom.ParsePaymentMethod(method)
	if err != nil {
		return orderdom.Order{}, err
	}

	return orderdom.New(oid, items, b, orderTime, total, pm)
}

// -----------------------------------------
// Row shapes
// -----------------------------------------

type archiveItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Qty       int    `json:"qty"`
}

func archiveItems(items []cartdom.LineItem) []archiveItem {
	out := make([]archiveItem, 0, len(items))
	for _, it := range items {
		out = append(out, archiveItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
		})
	}
	return out
}

// archiveBuyer rebuilds a minimal buyer from the flattened archive columns.
// The archive does not keep address/phone; the Firestore order doc does.
func archiveBuyer(kind, name, email string) (buyerdom.Buyer, error) {
	switch buyerdom.Kind(kind) {
	case buyerdom.KindAuthenticated:
		return buyerdom.Authenticated(buyerdom.Profile{
			UID:         "archived",
			DisplayName: name,
			Email:       email,
		})
	case buyerdom.KindGuest:
		return buyerdom.Guest(buyerdom.GuestInfo{
			Name:  name,
			Email: email,
		})
	}
	return buyerdom.Buyer{}, orderdom.ErrInvalidBuyer
}
