// Package dashboard computes the seller and admin analytics panels. Every
// aggregate defaults to zero when nothing has been recorded yet.
package dashboard

import (
	"context"
	"time"

	"gorm.io/gorm"

	"marketly.com/app/internal/modules/chat"
	"marketly.com/app/internal/modules/orders"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/modules/vouchers"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/money"
)

const RecentWindow = 30 * 24 * time.Hour

type Amount struct {
	Currency string `json:"currency"`
	Cents    int64  `json:"cents"`
	Display  string `json:"display"`
}

type ProductStats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	OutOfStock int64 `json:"out_of_stock"`
}

type SellerStats struct {
	ShopID            string           `json:"shop_id"`
	Products          ProductStats     `json:"products"`
	OrdersByStatus    map[string]int64 `json:"orders_by_status"`
	Revenue           []Amount         `json:"revenue"`
	RecentOrders      int64            `json:"recent_orders"`
	RecentRevenue     []Amount         `json:"recent_revenue"`
	ActiveVouchers    int64            `json:"active_vouchers"`
	OpenConversations int64            `json:"open_conversations"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

type AdminStats struct {
	UsersByRole    map[string]int64 `json:"users_by_role"`
	ShopsByStatus  map[string]int64 `json:"shops_by_status"`
	Products       ProductStats     `json:"products"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	TotalOrders    int64            `json:"total_orders"`
	GMV            []Amount         `json:"gmv"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

type Service struct {
	db       *gorm.DB
	users    *users.Repo
	shops    *shops.Repo
	vouchers *vouchers.Repo
	chat     *chat.Repo
	now      func() time.Time
}

func NewService(gdb *gorm.DB) *Service {
	return &Service{
		db:       gdb,
		users:    users.NewRepo(gdb),
		shops:    shops.NewRepo(gdb),
		vouchers: vouchers.NewRepo(gdb),
		chat:     chat.NewRepo(gdb),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Seller(ctx context.Context, shop shops.Shop) (SellerStats, error) {
	now := s.now()
	out := SellerStats{ShopID: shop.ID, GeneratedAt: now, Revenue: []Amount{}, RecentRevenue: []Amount{}}

	var err error
	if out.Products, err = s.productStats(ctx, shop.ID); err != nil {
		return SellerStats{}, apperr.Wrap(err)
	}
	if out.OrdersByStatus, err = s.ordersByStatus(ctx, shop.ID); err != nil {
		return SellerStats{}, apperr.Wrap(err)
	}
	if out.Revenue, err = s.revenue(ctx, shop.ID, time.Time{}); err != nil {
		return SellerStats{}, apperr.Wrap(err)
	}
	since := now.Add(-RecentWindow)
	if out.RecentRevenue, err = s.revenue(ctx, shop.ID, since); err != nil {
		return SellerStats{}, apperr.Wrap(err)
	}
	if err = s.db.WithContext(ctx).Model(&orders.Order{}).
		Where("shop_id = ? AND created_at >= ?", shop.ID, since).
		Count(&out.RecentOrders).Error; err != nil {
		return SellerStats{}, apperr.Wrap(err)
	}
	if out.ActiveVouchers, err = s.vouchers.CountActive(ctx, shop.ID, now); err != nil {
		return SellerStats{}, apperr.Wrap(err)
	}
	if out.OpenConversations, err = s.chat.CountOpenForShop(ctx, shop.ID, shop.OwnerID); err != nil {
		return SellerStats{}, apperr.Wrap(err)
	}
	return out, nil
}

func (s *Service) Admin(ctx context.Context) (AdminStats, error) {
	out := AdminStats{
		UsersByRole:   map[string]int64{},
		ShopsByStatus: map[string]int64{shops.StatusActive: 0, shops.StatusSuspended: 0},
		GeneratedAt:   s.now(),
	}
	for _, r := range []users.Role{users.RoleCustomer, users.RoleSeller, users.RoleAdmin} {
		out.UsersByRole[string(r)] = 0
	}

	roles, err := s.users.CountByRole(ctx)
	if err != nil {
		return AdminStats{}, apperr.Wrap(err)
	}
	for _, rc := range roles {
		out.UsersByRole[string(rc.Role)] = rc.Count
	}

	statuses, err := s.shops.CountByStatus(ctx)
	if err != nil {
		return AdminStats{}, apperr.Wrap(err)
	}
	for _, sc := range statuses {
		out.ShopsByStatus[sc.Status] = sc.Count
	}

	if out.Products, err = s.productStats(ctx, ""); err != nil {
		return AdminStats{}, apperr.Wrap(err)
	}
	if out.OrdersByStatus, err = s.ordersByStatus(ctx, ""); err != nil {
		return AdminStats{}, apperr.Wrap(err)
	}
	for _, n := range out.OrdersByStatus {
		out.TotalOrders += n
	}
	if out.GMV, err = s.revenue(ctx, "", time.Time{}); err != nil {
		return AdminStats{}, apperr.Wrap(err)
	}
	return out, nil
}

// productStats counts non-archived products; shopID "" means all shops.
func (s *Service) productStats(ctx context.Context, shopID string) (ProductStats, error) {
	var row struct {
		Total      int64
		Active     int64
		OutOfStock int64
	}
	q := s.db.WithContext(ctx).Model(&products.Product{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN stock = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock`, products.StatusActive).
		Where("status <> ?", products.StatusArchived)
	if shopID != "" {
		q = q.Where("shop_id = ?", shopID)
	}
	err := q.Scan(&row).Error
	return ProductStats{Total: row.Total, Active: row.Active, OutOfStock: row.OutOfStock}, err
}

func (s *Service) ordersByStatus(ctx context.Context, shopID string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, st := range orders.Statuses {
		out[st] = 0
	}

	var rows []struct {
		Status string
		N      int64
	}
	q := s.db.WithContext(ctx).Model(&orders.Order{}).Select("status, COUNT(*) AS n").Group("status")
	if shopID != "" {
		q = q.Where("shop_id = ?", shopID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// revenue sums totals of paid, shipped and delivered orders per currency.
func (s *Service) revenue(ctx context.Context, shopID string, since time.Time) ([]Amount, error) {
	var rows []struct {
		Currency string
		Cents    int64
	}
	q := s.db.WithContext(ctx).Model(&orders.Order{}).
		Select("currency, COALESCE(SUM(total_cents), 0) AS cents").
		Where("status IN ?", orders.RevenueStatuses).
		Group("currency").
		Order("currency")
	if shopID != "" {
		q = q.Where("shop_id = ?", shopID)
	}
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Amount, 0, len(rows))
	for _, r := range rows {
		out = append(out, Amount{Currency: r.Currency, Cents: r.Cents, Display: money.Format(r.Cents, r.Currency)})
	}
	return out, nil
}
