package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

var (
	errConversationNotFound = apperr.NotFoundErr("Conversation not found.")
	errNotParticipant       = apperr.ForbiddenErr("You are not part of this conversation.")
)

type Service struct {
	repo  *Repo
	shops *shops.Repo
	pub   Publisher
	now   func() time.Time
}

// NewService wires persistence with a publisher; pub may be nil when no
// realtime delivery is wanted.
func NewService(gdb *gorm.DB, pub Publisher) *Service {
	return &Service{
		repo:  NewRepo(gdb),
		shops: shops.NewRepo(gdb),
		pub:   pub,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Conversations(ctx context.Context, userID string, p pagination.Params) (pagination.Page[View], error) {
	items, total, err := s.repo.ListForUser(ctx, userID, p)
	if err != nil {
		return pagination.Page[View]{}, apperr.Wrap(err)
	}
	ids := make([]string, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.ID)
	}
	unread, err := s.repo.UnreadCounts(ctx, userID, ids)
	if err != nil {
		return pagination.Page[View]{}, apperr.Wrap(err)
	}
	return pagination.Map(pagination.NewPage(items, p, total), func(c Conversation) View {
		return View{
			ID:            c.ID,
			Shop:          c.Shop.Summary(),
			CustomerID:    c.CustomerID,
			CustomerName:  c.Customer.Name,
			LastMessageAt: c.LastMessageAt,
			Unread:        unread[c.ID],
			CreatedAt:     c.CreatedAt,
		}
	}), nil
}

// Start opens (or returns) the customer's conversation with a shop.
func (s *Service) Start(ctx context.Context, customerID, shopID string) (Conversation, error) {
	sh, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		if db.IsNotFound(err) {
			return Conversation{}, apperr.NotFoundErr("Shop not found.")
		}
		return Conversation{}, apperr.Wrap(err)
	}
	if sh.Status != shops.StatusActive || !sh.Settings.Data().AcceptsChat {
		return Conversation{}, apperr.InvalidErr("This shop does not accept messages.", nil)
	}
	if sh.OwnerID == customerID {
		return Conversation{}, apperr.InvalidErr("You cannot message your own shop.", nil)
	}

	c := Conversation{
		ID:         uuid.NewString(),
		ShopID:     sh.ID,
		CustomerID: customerID,
		CreatedAt:  s.now(),
	}
	if err := s.repo.GetOrCreate(ctx, &c); err != nil {
		return Conversation{}, apperr.Wrap(err)
	}
	c.Shop = sh
	return c, nil
}

func (s *Service) conversationFor(ctx context.Context, userID, id string) (Conversation, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Conversation{}, errConversationNotFound
		}
		return Conversation{}, apperr.Wrap(err)
	}
	if !c.hasParticipant(userID) {
		return Conversation{}, errNotParticipant
	}
	return c, nil
}

func (s *Service) Messages(ctx context.Context, userID, conversationID string, p pagination.Params) (pagination.Page[Message], error) {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return pagination.Page[Message]{}, err
	}
	items, total, err := s.repo.Messages(ctx, conversationID, p)
	if err != nil {
		return pagination.Page[Message]{}, apperr.Wrap(err)
	}
	return pagination.NewPage(items, p, total), nil
}

// Send stores a message and pushes it to both participants.
func (s *Service) Send(ctx context.Context, userID, conversationID, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > MaxBodyLen {
		return Message{}, apperr.InvalidErr("Message must be between 1 and 2000 characters.", map[string]string{
			"body": "Must be between 1 and 2000 characters.",
		})
	}
	c, err := s.conversationFor(ctx, userID, conversationID)
	if err != nil {
		return Message{}, err
	}

	m := Message{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		SenderID:       userID,
		Body:           body,
		CreatedAt:      s.now(),
	}
	if err := s.repo.AddMessage(ctx, &m); err != nil {
		return Message{}, apperr.Wrap(err)
	}
	if s.pub != nil {
		s.pub.Publish(c.participants(), Event{Type: "message", Message: m})
	}
	return m, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, conversationID string) (int64, error) {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkRead(ctx, conversationID, userID, s.now())
	if err != nil {
		return 0, apperr.Wrap(err)
	}
	return n, nil
}

func (s *Service) CountOpenForShop(ctx context.Context, shopID, ownerID string) (int64, error) {
	return s.repo.CountOpenForShop(ctx, shopID, ownerID)
}
