package services

import (
	"context"
	"fmt"
	"strings"

	"questhelper/domain/entities"
	"questhelper/domain/interfaces"
)

// Subcommand words that cannot be used as FAQ names
var reservedFAQNames = map[string]bool{
	"create":   true,
	"edit":     true,
	"transfer": true,
	"delete":   true,
}

type faqService struct {
	faqRepo interfaces.FAQRepository
}

// NewFAQService creates a new FAQ service
func NewFAQService(faqRepo interfaces.FAQRepository) interfaces.FAQService {
	return &faqService{faqRepo: faqRepo}
}

// NormalizeFAQName lower-cases and trims an FAQ name
func NormalizeFAQName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *faqService) Get(ctx context.Context, name string) (*entities.FAQ, error) {
	name = NormalizeFAQName(name)
	faq, err := s.faqRepo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get faq %q: %w", name, err)
	}
	if faq == nil {
		return nil, ErrFAQNotFound
	}
	return faq, nil
}

func (s *faqService) List(ctx context.Context) ([]*entities.FAQ, error) {
	faqs, err := s.faqRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	return faqs, nil
}

func (s *faqService) Create(ctx context.Context, guildID int64, name, content string, ownerID int64) (*entities.FAQ, error) {
	name = NormalizeFAQName(name)
	content = strings.TrimSpace(content)
	if name == "" || content == "" {
		return nil, ErrInvalidName
	}
	if reservedFAQNames[name] {
		return nil, ErrFAQReservedName
	}

	existing, err := s.faqRepo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get faq %q: %w", name, err)
	}
	if existing != nil {
		return nil, ErrFAQExists
	}

	faq := &entities.FAQ{
		GuildID: guildID,
		Name:    name,
		Content: content,
		OwnerID: ownerID,
	}
	if err := s.faqRepo.Create(ctx, faq); err != nil {
		return nil, fmt.Errorf("failed to create faq: %w", err)
	}
	return faq, nil
}

// authorize loads an entry and checks the actor may change it
func (s *faqService) authorize(ctx context.Context, name string, actorID int64, actorIsAdmin bool) (*entities.FAQ, error) {
	faq, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !actorIsAdmin && !faq.IsOwnedBy(actorID) {
		return nil, ErrNotFAQOwner
	}
	return faq, nil
}

func (s *faqService) Edit(ctx context.Context, name, content string, actorID int64, actorIsAdmin bool) (*entities.FAQ, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidName
	}

	faq, err := s.authorize(ctx, name, actorID, actorIsAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.faqRepo.UpdateContent(ctx, faq.ID, content); err != nil {
		return nil, fmt.Errorf("failed to update faq: %w", err)
	}
	faq.Content = content
	return faq, nil
}

func (s *faqService) Transfer(ctx context.Context, name string, newOwnerID, actorID int64, actorIsAdmin bool) (*entities.FAQ, error) {
	faq, err := s.authorize(ctx, name, actorID, actorIsAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.faqRepo.UpdateOwner(ctx, faq.ID, newOwnerID); err != nil {
		return nil, fmt.Errorf("failed to transfer faq: %w", err)
	}
	faq.OwnerID = newOwnerID
	return faq, nil
}

func (s *faqService) Delete(ctx context.Context, name string, actorID int64, actorIsAdmin bool) (*entities.FAQ, error) {
	faq, err := s.authorize(ctx, name, actorID, actorIsAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.faqRepo.Delete(ctx, faq.ID); err != nil {
		return nil, fmt.Errorf("failed to delete faq: %w", err)
	}
	return faq, nil
}
