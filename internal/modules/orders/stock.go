package orders

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockLine struct {
	ProductID string
	Qty       int
}

// mergeLines sums quantities per product and returns ids in ascending order.
func mergeLines(lines []StockLine) (map[string]int, []string) {
	want := make(map[string]int, len(lines))
	for _, ln := range lines {
		q := ln.Qty
		if q < 1 {
			q = 1
		}
		want[ln.ProductID] += q
	}
	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return want, ids
}

// DeductStockInTx runs inside the caller's transaction. Rows are locked in id
// order so concurrent orders acquire locks in the same sequence.
func DeductStockInTx(ctx context.Context, tx *gorm.DB, lines []StockLine) error {
	if len(lines) == 0 {
		return nil
	}
	want, ids := mergeLines(lines)

	type stockRow struct {
		ID    string `gorm:"column:id"`
		Stock int    `gorm:"column:stock"`
	}
	var rows []stockRow

	if err := tx.WithContext(ctx).
		Table("products").
		Select("id, stock").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return err
	}

	avail := make(map[string]int, len(rows))
	for _, r := range rows {
		avail[r.ID] = r.Stock
	}

	var oos []OutOfStockItem
	for _, id := range ids {
		req := want[id]
		if av := avail[id]; av < req {
			oos = append(oos, OutOfStockItem{ProductID: id, Requested: req, Available: av})
		}
	}
	if len(oos) > 0 {
		return &OutOfStockError{Items: oos}
	}

	for _, id := range ids {
		req := want[id]
		res := tx.WithContext(ctx).
			Table("products").
			Where("id = ? AND stock >= ?", id, req).
			UpdateColumn("stock", gorm.Expr("stock - ?", req))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return &OutOfStockError{Items: []OutOfStockItem{{ProductID: id, Requested: req, Available: 0}}}
		}
	}
	return nil
}

// RestockInTx puts quantities back, e.g. when an order is cancelled.
func RestockInTx(ctx context.Context, tx *gorm.DB, lines []StockLine) error {
	want, ids := mergeLines(lines)
	for _, id := range ids {
		if err := tx.WithContext(ctx).
			Table("products").
			Where("id = ?", id).
			UpdateColumn("stock", gorm.Expr("stock + ?", want[id])).Error; err != nil {
			return err
		}
	}
	return nil
}
