package chat

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lextrack/lextrack/internal/legalai"
	"github.com/lextrack/lextrack/internal/vault"
)

var ErrSessionNotFound = errors.New("chat: session not found")

const titleLimit = 40

type Service struct {
	vault *vault.Store
	ai    *legalai.Service
}

func NewService(store *vault.Store, ai *legalai.Service) *Service {
	return &Service{vault: store, ai: ai}
}

// SessionTitle derives a session title from its first message: at most 40
// characters, ellipsized beyond that.
func SessionTitle(text string) string {
	runes := []rune(text)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit]) + "..."
	}
	return text
}

// ListSessions returns the user's history view: pinned sessions first, then
// descending creation time.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]vault.ChatSession, error) {
	sessions, err := s.vault.LoadChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].IsPinned != sessions[j].IsPinned {
			return sessions[i].IsPinned
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (vault.ChatSession, error) {
	sessions, err := s.vault.LoadChats(ctx, userID)
	if err != nil {
		return vault.ChatSession{}, err
	}
	for _, sess := range sessions {
		if sess.ID == sessionID {
			return sess, nil
		}
	}
	return vault.ChatSession{}, ErrSessionNotFound
}

// SendMessage appends the user's message (creating a session on demand),
// consults the collaborator and appends its reply. The collaborator layer
// degrades internally, so the assistant message is always present on success.
func (s *Service) SendMessage(ctx context.Context, userID, role, sessionID, text string, attachments []vault.Attachment) (vault.ChatSession, vault.Message, error) {
	sessions, err := s.vault.LoadChats(ctx, userID)
	if err != nil {
		return vault.ChatSession{}, vault.Message{}, err
	}

	idx := -1
	if sessionID != "" {
		for i := range sessions {
			if sessions[i].ID == sessionID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return vault.ChatSession{}, vault.Message{}, ErrSessionNotFound
		}
	} else {
		sid, err := NewID()
		if err != nil {
			return vault.ChatSession{}, vault.Message{}, err
		}
		sessions = append(sessions, vault.ChatSession{
			ID:        sid,
			UserID:    userID,
			Title:     SessionTitle(text),
			CreatedAt: time.Now(),
			Role:      role,
		})
		idx = len(sessions) - 1
	}

	history := toHistory(sessions[idx].Messages)

	userMsg, err := newMessage("user", text)
	if err != nil {
		return vault.ChatSession{}, vault.Message{}, err
	}
	userMsg.Attachments = attachments
	sessions[idx].Messages = append(sessions[idx].Messages, userMsg)

	res := s.ai.AnalyzeQuery(ctx, text, history, role, toAIAttachments(attachments))

	assistant, err := newMessage("assistant", res.Answer)
	if err != nil {
		return vault.ChatSession{}, vault.Message{}, err
	}
	assistant.AgentUsed = res.AgentType
	assistant.Safety = res.Safety
	sessions[idx].Messages = append(sessions[idx].Messages, assistant)

	if err := s.vault.SaveChats(ctx, userID, sessions); err != nil {
		return vault.ChatSession{}, vault.Message{}, err
	}
	return sessions[idx], assistant, nil
}

// AppendUserMessage records a user message without consulting the
// collaborator; the reply is produced later by AppendAssistantReply. This is
// the queued-analysis path.
func (s *Service) AppendUserMessage(ctx context.Context, userID, role, sessionID, text string, attachments []vault.Attachment) (vault.ChatSession, error) {
	sessions, err := s.vault.LoadChats(ctx, userID)
	if err != nil {
		return vault.ChatSession{}, err
	}

	idx := -1
	if sessionID != "" {
		for i := range sessions {
			if sessions[i].ID == sessionID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return vault.ChatSession{}, ErrSessionNotFound
		}
	} else {
		sid, err := NewID()
		if err != nil {
			return vault.ChatSession{}, err
		}
		sessions = append(sessions, vault.ChatSession{
			ID:        sid,
			UserID:    userID,
			Title:     SessionTitle(text),
			CreatedAt: time.Now(),
			Role:      role,
		})
		idx = len(sessions) - 1
	}

	msg, err := newMessage("user", text)
	if err != nil {
		return vault.ChatSession{}, err
	}
	msg.Attachments = attachments
	sessions[idx].Messages = append(sessions[idx].Messages, msg)

	if err := s.vault.SaveChats(ctx, userID, sessions); err != nil {
		return vault.ChatSession{}, err
	}
	return sessions[idx], nil
}

// AppendAssistantReply generates the collaborator's reply to the session's
// latest user message and appends it. Used by the worker.
func (s *Service) AppendAssistantReply(ctx context.Context, userID, sessionID string) (vault.Message, error) {
	sessions, err := s.vault.LoadChats(ctx, userID)
	if err != nil {
		return vault.Message{}, err
	}
	idx := -1
	for i := range sessions {
		if sessions[i].ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return vault.Message{}, ErrSessionNotFound
	}

	msgs := sessions[idx].Messages
	query := ""
	var queryAttachments []vault.Attachment
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			query = msgs[i].Content
			queryAttachments = msgs[i].Attachments
			break
		}
	}
	if query == "" {
		return vault.Message{}, errors.New("chat: no user message to reply to")
	}

	res := s.ai.AnalyzeQuery(ctx, query, toHistory(msgs[:len(msgs)-1]), sessions[idx].Role, toAIAttachments(queryAttachments))

	assistant, err := newMessage("assistant", res.Answer)
	if err != nil {
		return vault.Message{}, err
	}
	assistant.AgentUsed = res.AgentType
	assistant.Safety = res.Safety
	sessions[idx].Messages = append(sessions[idx].Messages, assistant)

	if err := s.vault.SaveChats(ctx, userID, sessions); err != nil {
		return vault.Message{}, err
	}
	return assistant, nil
}

func (s *Service) DeleteSession(ctx context.Context, userID, sessionID string) error {
	sessions, err := s.vault.LoadChats(ctx, userID)
	if err != nil {
		return err
	}
	kept := sessions[:0]
	found := false
	for _, sess := range sessions {
		if sess.ID == sessionID {
			found = true
			continue
		}
		kept = append(kept, sess)
	}
	if !found {
		return ErrSessionNotFound
	}
	return s.vault.SaveChats(ctx, userID, kept)
}

func (s *Service) TogglePin(ctx context.Context, userID, sessionID string) (vault.ChatSession, error) {
	sessions, err := s.vault.LoadChats(ctx, userID)
	if err != nil {
		return vault.ChatSession{}, err
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			sessions[i].IsPinned = !sessions[i].IsPinned
			if err := s.vault.SaveChats(ctx, userID, sessions); err != nil {
				return vault.ChatSession{}, err
			}
			return sessions[i], nil
		}
	}
	return vault.ChatSession{}, ErrSessionNotFound
}

func newMessage(role, content string) (vault.Message, error) {
	id, err := NewID()
	if err != nil {
		return vault.Message{}, err
	}
	return vault.Message{
		ID:        id,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}, nil
}

func toHistory(msgs []vault.Message) []legalai.HistoryMessage {
	out := make([]legalai.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, legalai.HistoryMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func toAIAttachments(files []vault.Attachment) []legalai.Attachment {
	if len(files) == 0 {
		return nil
	}
	out := make([]legalai.Attachment, 0, len(files))
	for _, f := range files {
		out = append(out, legalai.Attachment{Name: f.Name, MIMEType: f.Type, Data: f.Data})
	}
	return out
}
