package chat

import (
	"time"

	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
)

const MaxBodyLen = 2000

type Conversation struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	ShopID        string     `gorm:"size:36;not null;uniqueIndex:ux_conversations_shop_customer,priority:1" json:"shop_id"`
	CustomerID    string     `gorm:"size:36;not null;uniqueIndex:ux_conversations_shop_customer,priority:2" json:"customer_id"`
	LastMessageAt *time.Time `json:"last_message_at"`
	Shop          shops.Shop `gorm:"foreignKey:ShopID" json:"-"`
	Customer      users.User `gorm:"foreignKey:CustomerID" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (Conversation) TableName() string { return "conversations" }

type Message struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string     `gorm:"size:36;not null;index:ix_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID       string     `gorm:"size:36;not null" json:"sender_id"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	ReadAt         *time.Time `json:"read_at"`
	CreatedAt      time.Time  `gorm:"index:ix_messages_conversation_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// View is a conversation as listed to one participant.
type View struct {
	ID            string        `json:"id"`
	Shop          shops.Summary `json:"shop"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	LastMessageAt *time.Time    `json:"last_message_at"`
	Unread        int64         `json:"unread"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Event is pushed to websocket clients.
type Event struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

func (c Conversation) participants() []string {
	return []string{c.CustomerID, c.Shop.OwnerID}
}

func (c Conversation) hasParticipant(userID string) bool {
	return userID != "" && (c.CustomerID == userID || c.Shop.OwnerID == userID)
}
