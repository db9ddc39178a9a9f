package services

import (
	"sort"
	"strings"
	"time"

	"github.com/huangang/ideahub/backend/internal/config"
	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/pkg/metrics"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type MessageService struct {
	db          *gorm.DB
	pageSize    int
	maxPageSize int
}

func NewMessageService(db *gorm.DB, cfg *config.ChatConfig) *MessageService {
	s := &MessageService{db: db, pageSize: 50, maxPageSize: 200}
	if cfg != nil {
		if cfg.PageSize > 0 {
			s.pageSize = cfg.PageSize
		}
		if cfg.MaxPageSize > 0 {
			s.maxPageSize = cfg.MaxPageSize
		}
	}
	return s
}

type PostMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type DirectMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	Message    string `json:"message" binding:"required"`
}

// PageRequest is a forward cursor: messages with id > AfterID.
type PageRequest struct {
	AfterID uint `form:"after_id"`
	Limit   int  `form:"limit" binding:"omitempty,min=1"`
}

type ChatMessageView struct {
	ID        uint      `json:"id"`
	ProjectID uint      `json:"project_id"`
	Sender    UserBrief `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatPage struct {
	Items      []ChatMessageView `json:"items"`
	NextCursor uint              `json:"next_cursor"`
	HasMore    bool              `json:"has_more"`
}

type DirectPage struct {
	Items      []DirectMessageView `json:"items"`
	NextCursor uint                `json:"next_cursor"`
	HasMore    bool                `json:"has_more"`
}

type DirectMessageView struct {
	ID         uint      `json:"id"`
	SenderID   uint      `json:"sender_id"`
	ReceiverID uint      `json:"receiver_id"`
	Sender     UserBrief `json:"sender"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	Contact     UserBrief         `json:"contact"`
	LastMessage DirectMessageView `json:"last_message"`
	UnreadCount int64             `json:"unread_count"`
}

// insertDirectMessage writes a direct message through db, which may be a
// transaction handle.
func insertDirectMessage(db *gorm.DB, senderID, receiverID uint, body string) (*models.DirectMessage, error) {
	msg := models.DirectMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    body,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func toDirectView(m models.DirectMessage) DirectMessageView {
	return DirectMessageView{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Sender:     briefOf(m.Sender),
		Message:    m.Message,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

func toChatView(m models.ChatMessage) ChatMessageView {
	return ChatMessageView{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Sender:    briefOf(m.Sender),
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

// PostDirect sends a message from senderID to receiverID.
func (s *MessageService) PostDirect(senderID, receiverID uint, body string) (*DirectMessageView, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationf("message cannot be empty")
	}
	if senderID == receiverID {
		return nil, validationf("cannot message yourself")
	}

	sender, err := ensureUserExists(s.db, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := ensureUserExists(s.db, receiverID); err != nil {
		return nil, err
	}

	msg, err := insertDirectMessage(s.db, senderID, receiverID, body)
	if err != nil {
		return nil, err
	}
	msg.Sender = sender

	metrics.MessagesPosted.WithLabelValues("direct").Inc()
	view := toDirectView(*msg)
	return &view, nil
}

// PostProjectChat appends a line to a project's chat. Participants only.
func (s *MessageService) PostProjectChat(projectID, senderID uint, body string) (*ChatMessageView, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationf("message cannot be empty")
	}

	project, err := loadProject(s.db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(s.db, project, senderID); err != nil {
		return nil, err
	}
	sender, err := ensureUserExists(s.db, senderID)
	if err != nil {
		return nil, err
	}

	msg := models.ChatMessage{
		ProjectID: projectID,
		SenderID:  senderID,
		Message:   body,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	msg.Sender = sender

	metrics.MessagesPosted.WithLabelValues("chat").Inc()
	view := toChatView(msg)
	return &view, nil
}

func (s *MessageService) bounds(req *PageRequest) (uint, int) {
	limit := s.pageSize
	var afterID uint
	if req != nil {
		afterID = req.AfterID
		if req.Limit > 0 {
			limit = req.Limit
		}
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return afterID, limit
}

// ListProjectChat pages a project's chat in id order, oldest first.
func (s *MessageService) ListProjectChat(projectID, requesterID uint, req *PageRequest) (*ChatPage, error) {
	project, err := loadProject(s.db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(s.db, project, requesterID); err != nil {
		return nil, err
	}

	afterID, limit := s.bounds(req)

	// One extra row tells us whether another page exists.
	var msgs []models.ChatMessage
	if err := s.db.Where("project_id = ? AND id > ?", projectID, afterID).
		Preload("Sender").
		Order("id ASC").
		Limit(limit + 1).
		Find(&msgs).Error; err != nil {
		return nil, err
	}

	page := &ChatPage{NextCursor: afterID}
	if len(msgs) > limit {
		page.HasMore = true
		msgs = msgs[:limit]
	}
	page.Items = lo.Map(msgs, func(m models.ChatMessage, _ int) ChatMessageView { return toChatView(m) })
	if len(msgs) > 0 {
		page.NextCursor = msgs[len(msgs)-1].ID
	}
	return page, nil
}

// Conversation pages the messages between two users, oldest first, and
// marks the returned ones addressed to userID as read.
func (s *MessageService) Conversation(userID, otherID uint, req *PageRequest) (*DirectPage, error) {
	if _, err := ensureUserExists(s.db, otherID); err != nil {
		return nil, err
	}
	afterID, limit := s.bounds(req)

	var msgs []models.DirectMessage
	if err := s.db.Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND id > ?",
		userID, otherID, otherID, userID, afterID).
		Preload("Sender").
		Order("id ASC").
		Limit(limit + 1).
		Find(&msgs).Error; err != nil {
		return nil, err
	}

	page := &DirectPage{NextCursor: afterID}
	if len(msgs) > limit {
		page.HasMore = true
		msgs = msgs[:limit]
	}
	if len(msgs) > 0 {
		page.NextCursor = msgs[len(msgs)-1].ID
		if err := s.db.Model(&models.DirectMessage{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ? AND id <= ?", otherID, userID, false, page.NextCursor).
			Update("is_read", true).Error; err != nil {
			return nil, err
		}
	}
	page.Items = lo.Map(msgs, func(m models.DirectMessage, _ int) DirectMessageView { return toDirectView(m) })
	return page, nil
}

// Conversations lists userID's contacts with their latest message, most
// recent conversation first.
func (s *MessageService) Conversations(userID uint) ([]ConversationSummary, error) {
	type lastRow struct {
		ContactID uint
		LastID    uint
	}
	var rows []lastRow
	if err := s.db.Model(&models.DirectMessage{}).
		Select("CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS contact_id, MAX(id) AS last_id", userID).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group("contact_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []ConversationSummary{}, nil
	}

	var last []models.DirectMessage
	if err := s.db.Where("id IN ?", lo.Map(rows, func(r lastRow, _ int) uint { return r.LastID })).
		Preload("Sender").
		Find(&last).Error; err != nil {
		return nil, err
	}
	lastByID := lo.KeyBy(last, func(m models.DirectMessage) uint { return m.ID })

	contactIDs := lo.Map(rows, func(r lastRow, _ int) uint { return r.ContactID })
	var contacts []models.User
	if err := s.db.Where("id IN ?", contactIDs).Find(&contacts).Error; err != nil {
		return nil, err
	}
	contactByID := lo.KeyBy(contacts, func(u models.User) uint { return u.ID })

	type unreadRow struct {
		SenderID uint
		Count    int64
	}
	var unread []unreadRow
	if err := s.db.Model(&models.DirectMessage{}).
		Select("sender_id, COUNT(*) AS count").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Group("sender_id").
		Scan(&unread).Error; err != nil {
		return nil, err
	}
	unreadBy := lo.SliceToMap(unread, func(r unreadRow) (uint, int64) { return r.SenderID, r.Count })

	out := make([]ConversationSummary, 0, len(rows))
	for _, r := range rows {
		msg, ok := lastByID[r.LastID]
		if !ok {
			continue
		}
		contact := contactByID[r.ContactID]
		out = append(out, ConversationSummary{
			Contact:     briefOf(&contact),
			LastMessage: toDirectView(msg),
			UnreadCount: unreadBy[r.ContactID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessage.ID > out[j].LastMessage.ID })
	return out, nil
}
