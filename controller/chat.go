package controller

import (
	"context"
	"fmt"
	"strings"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/policy"
	"precisionpulse/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChatInput struct {
	Building models.Building `json:"building"`
	Shift    models.Shift    `json:"shift"`
	Body     string          `json:"body"`
}

type ChatService struct {
	crud[models.ChatMessage]
}

func NewChatService(st *store.Store, pol *policy.Policy, mirror Mirror, logger *zap.Logger) *ChatService {
	return &ChatService{crud[models.ChatMessage]{
		entity: policy.Chat,
		table:  st.Chat,
		policy: pol,
		mirror: mirror,
		logger: logger.Named("chat_service"),
	}}
}

// List returns messages newest first.
func (s *ChatService) List(ctx context.Context, user *models.User, q store.Query) (*Listing[models.ChatMessage], error) {
	q.WorkDate, q.Status = "", ""
	return s.list(ctx, user, q)
}

func (s *ChatService) Post(ctx context.Context, user *models.User, in ChatInput) (*models.ChatMessage, error) {
	if err := s.requireCreate(user); err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Body = strings.TrimSpace(in.Body)
	err := firstErr(
		validateBuilding(scope.Building),
		validateShift(scope.Shift, false),
		required("body", in.Body),
		maxLen("body", in.Body, 2000),
	)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ID:         uuid.New(),
		Building:   scope.Building,
		Shift:      scope.Shift,
		Body:       in.Body,
		AuthorName: user.DisplayName(),
		Creator:    models.CreatorOf(user),
	}
	if err := s.insert(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// TogglePin flips the pinned flag. Only Super Admin and the building's
// manager may pin.
func (s *ChatService) TogglePin(ctx context.Context, user *models.User, id uuid.UUID) (*models.ChatMessage, error) {
	msg, _, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Privileged(user, msg.AccessScope()) {
		return nil, e.ErrForbidden
	}
	msg.Pinned = !msg.Pinned
	if err := s.table.Patch(ctx, id, map[string]any{"pinned": msg.Pinned}); err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}
	return msg, nil
}

// Delete lets authors remove their own messages; privileged roles may
// remove any message in scope.
func (s *ChatService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	_, err := s.delete(ctx, user, id)
	return err
}
