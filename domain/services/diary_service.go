package services

import (
	"context"
	"fmt"
	"strings"

	"questhelper/domain/entities"
	"questhelper/domain/interfaces"
	"questhelper/events"
)

// diaryService implements the DiaryService interface
type diaryService struct {
	diaryRepo      interfaces.DiaryRepository
	eventPublisher interfaces.EventPublisher
}

// NewDiaryService creates a new diary service
func NewDiaryService(diaryRepo interfaces.DiaryRepository, eventPublisher interfaces.EventPublisher) interfaces.DiaryService {
	return &diaryService{
		diaryRepo:      diaryRepo,
		eventPublisher: eventPublisher,
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *diaryService) EnsureNameAvailable(ctx context.Context, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	existing, err := s.diaryRepo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to look up diary %q: %w", name, err)
	}
	if existing != nil {
		return ErrDiaryExists
	}
	return nil
}

// CreateDiary records a diary whose control message has already been posted
func (s *diaryService) CreateDiary(ctx context.Context, guildID, channelID, messageID, initiatorID int64, name string) (*entities.Diary, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	if err := s.EnsureNameAvailable(ctx, name); err != nil {
		return nil, err
	}

	diary := entities.NewDiary(guildID, channelID, messageID, initiatorID, name)
	if err := s.diaryRepo.Create(ctx, diary); err != nil {
		return nil, fmt.Errorf("failed to create diary: %w", err)
	}

	if err := s.eventPublisher.Publish(events.DiaryCreatedEvent{
		DiaryID:          diary.ID,
		GuildID:          diary.GuildID,
		Name:             diary.Name,
		InitiatorID:      diary.InitiatorID,
		ControlMessageID: diary.ControlMessageID,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish diary created event: %w", err)
	}

	return diary, nil
}

func (s *diaryService) GetByName(ctx context.Context, name string) (*entities.Diary, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	diary, err := s.diaryRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up diary %q: %w", name, err)
	}
	if diary == nil {
		return nil, ErrDiaryNotFound
	}
	return diary, nil
}

func (s *diaryService) ListDiaries(ctx context.Context) ([]*entities.Diary, error) {
	diaries, err := s.diaryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list diaries: %w", err)
	}
	return diaries, nil
}

func (s *diaryService) DeleteDiary(ctx context.Context, name string) (*entities.Diary, error) {
	diary, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.diaryRepo.Delete(ctx, diary.ID); err != nil {
		return nil, fmt.Errorf("failed to delete diary: %w", err)
	}

	if err := s.eventPublisher.Publish(events.DiaryDeletedEvent{
		DiaryID: diary.ID,
		GuildID: diary.GuildID,
		Name:    diary.Name,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish diary deleted event: %w", err)
	}

	return diary, nil
}

func (s *diaryService) RenameDiary(ctx context.Context, oldName, newName string) (*entities.Diary, error) {
	newName, err := normalizeName(newName)
	if err != nil {
		return nil, err
	}

	diary, err := s.GetByName(ctx, oldName)
	if err != nil {
		return nil, err
	}

	if diary.Name == newName {
		return diary, nil
	}

	if err := s.EnsureNameAvailable(ctx, newName); err != nil {
		return nil, err
	}

	if err := s.diaryRepo.Rename(ctx, diary.ID, newName); err != nil {
		return nil, fmt.Errorf("failed to rename diary: %w", err)
	}

	previous := diary.Name
	diary.Name = newName

	if err := s.eventPublisher.Publish(events.DiaryRenamedEvent{
		DiaryID: diary.ID,
		GuildID: diary.GuildID,
		OldName: previous,
		NewName: newName,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish diary renamed event: %w", err)
	}

	return diary, nil
}

// SetStatus writes a status directly, bypassing the reaction path
func (s *diaryService) SetStatus(ctx context.Context, name string, status entities.DiaryStatus, changedBy int64) (*entities.Diary, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	diary, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.writeStatus(ctx, diary, status, changedBy); err != nil {
		return nil, err
	}
	return diary, nil
}

// ApplyReaction maps a reaction on a control message to a status write. The
// write happens even when the status does not change.
func (s *diaryService) ApplyReaction(ctx context.Context, messageID, userID int64, emoji string) (*entities.Diary, error) {
	status, ok := entities.StatusForEmoji(emoji)
	if !ok {
		return nil, ErrUnrecognizedEmoji
	}

	diary, err := s.diaryRepo.GetByControlMessageID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up control message %d: %w", messageID, err)
	}
	if diary == nil {
		return nil, ErrUnknownControlMessage
	}

	if err := s.writeStatus(ctx, diary, status, userID); err != nil {
		return nil, err
	}
	return diary, nil
}

func (s *diaryService) writeStatus(ctx context.Context, diary *entities.Diary, status entities.DiaryStatus, changedBy int64) error {
	if err := s.diaryRepo.UpdateStatus(ctx, diary.ID, status); err != nil {
		return fmt.Errorf("failed to update diary status: %w", err)
	}

	oldStatus := diary.Status
	diary.Status = status

	if err := s.eventPublisher.Publish(events.DiaryStatusChangedEvent{
		DiaryID:   diary.ID,
		GuildID:   diary.GuildID,
		Name:      diary.Name,
		OldStatus: oldStatus,
		NewStatus: status,
		ChangedBy: changedBy,
	}); err != nil {
		return fmt.Errorf("failed to publish diary status event: %w", err)
	}
	return nil
}
