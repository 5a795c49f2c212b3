package chat

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketly.com/app/internal/shared/pagination"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// ListForUser returns conversations where userID is the customer or owns the shop.
func (r *Repo) ListForUser(ctx context.Context, userID string, p pagination.Params) ([]Conversation, int64, error) {
	base := r.db.WithContext(ctx).Model(&Conversation{}).
		Where("customer_id = ? OR shop_id IN (?)", userID,
			r.db.Table("shops").Select("id").Where("owner_id = ?", userID))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Conversation
	err := base.
		Preload("Shop").
		Preload("Customer").
		Order("COALESCE(last_message_at, created_at) DESC, id DESC").
		Limit(p.Limit()).
		Offset(p.Within(total).Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *Repo) Get(ctx context.Context, id string) (Conversation, error) {
	var c Conversation
	err := r.db.WithContext(ctx).Preload("Shop").Preload("Customer").First(&c, "id = ?", id).Error
	return c, err
}

// GetOrCreate is idempotent per (shop, customer).
func (r *Repo) GetOrCreate(ctx context.Context, c *Conversation) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(c).Error
	if err != nil {
		return err
	}
	// the row may predate this call; reload it by its natural key
	var got Conversation
	if err := r.db.WithContext(ctx).
		First(&got, "shop_id = ? AND customer_id = ?", c.ShopID, c.CustomerID).Error; err != nil {
		return err
	}
	*c = got
	return nil
}

func (r *Repo) Messages(ctx context.Context, conversationID string, p pagination.Params) ([]Message, int64, error) {
	base := r.db.WithContext(ctx).Model(&Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []Message
	err := base.
		Order("created_at DESC, id DESC").
		Limit(p.Limit()).
		Offset(p.Within(total).Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *Repo) AddMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", m.ConversationID).
			Update("last_message_at", m.CreatedAt).Error
	})
}

// MarkRead stamps messages sent by the other party.
func (r *Repo) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

// UnreadCounts maps conversation id to messages readerID has not read yet.
func (r *Repo) UnreadCounts(ctx context.Context, readerID string, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ConversationID string
		N              int64
	}
	err := r.db.WithContext(ctx).Model(&Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ? AND sender_id <> ? AND read_at IS NULL", ids, readerID).
		Group("conversation_id").
		Scan(&rows).Error
	for _, row := range rows {
		out[row.ConversationID] = row.N
	}
	return out, err
}

// CountOpenForShop counts conversations holding customer messages the shop
// owner has not read.
func (r *Repo) CountOpenForShop(ctx context.Context, shopID, ownerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.shop_id = ? AND messages.sender_id <> ? AND messages.read_at IS NULL", shopID, ownerID).
		Distinct("messages.conversation_id").
		Count(&n).Error
	return n, err
}
