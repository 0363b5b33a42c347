package services

import (
	"context"
	"testing"

	"questhelper/domain/entities"
	"questhelper/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFAQService_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		faqName   string
		content   string
		setupMock func(*testhelpers.MockFAQRepository)
		wantErr   error
	}{
		{
			name:    "creates normalized entry",
			faqName: " Plugin-Hub ",
			content: "Open the plugin hub and search.",
			setupMock: func(m *testhelpers.MockFAQRepository) {
				m.On("Get", mock.Anything, "plugin-hub").Return(nil, nil)
				m.On("Create", mock.Anything, mock.MatchedBy(func(f *entities.FAQ) bool {
					return f.Name == "plugin-hub" && f.OwnerID == 7 && f.GuildID == 1
				})).Return(nil)
			},
		},
		{
			name:    "name taken",
			faqName: "install",
			content: "x",
			setupMock: func(m *testhelpers.MockFAQRepository) {
				m.On("Get", mock.Anything, "install").Return(&entities.FAQ{ID: 3, Name: "install"}, nil)
			},
			wantErr: ErrFAQExists,
		},
		{
			name:      "reserved name",
			faqName:   "Delete",
			content:   "x",
			setupMock: func(m *testhelpers.MockFAQRepository) {},
			wantErr:   ErrFAQReservedName,
		},
		{
			name:      "empty content",
			faqName:   "install",
			content:   "  ",
			setupMock: func(m *testhelpers.MockFAQRepository) {},
			wantErr:   ErrInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockRepo := new(testhelpers.MockFAQRepository)
			tt.setupMock(mockRepo)

			service := NewFAQService(mockRepo)
			faq, err := service.Create(context.Background(), 1, tt.faqName, tt.content, 7)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, faq)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "plugin-hub", faq.Name)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestFAQService_OwnershipChecks(t *testing.T) {
	t.Parallel()

	owned := func() *entities.FAQ {
		return &entities.FAQ{ID: 9, GuildID: 1, Name: "install", Content: "old", OwnerID: 100}
	}

	tests := []struct {
		name     string
		actorID  int64
		isAdmin  bool
		wantErr  error
		expectOp bool
	}{
		{name: "owner may edit", actorID: 100, expectOp: true},
		{name: "admin may edit", actorID: 200, isAdmin: true, expectOp: true},
		{name: "stranger may not edit", actorID: 200, wantErr: ErrNotFAQOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockRepo := new(testhelpers.MockFAQRepository)
			// Transfer changes the owner, so each operation gets its own copy
			for i := 0; i < 3; i++ {
				mockRepo.On("Get", mock.Anything, "install").Return(owned(), nil).Once()
			}
			if tt.expectOp {
				mockRepo.On("UpdateContent", mock.Anything, int64(9), "new").Return(nil)
				mockRepo.On("UpdateOwner", mock.Anything, int64(9), int64(300)).Return(nil)
				mockRepo.On("Delete", mock.Anything, int64(9)).Return(nil)
			}

			service := NewFAQService(mockRepo)
			ctx := context.Background()

			edited, err := service.Edit(ctx, "install", "new", tt.actorID, tt.isAdmin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "new", edited.Content)
			}

			_, err = service.Transfer(ctx, "install", 300, tt.actorID, tt.isAdmin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			_, err = service.Delete(ctx, "install", tt.actorID, tt.isAdmin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestFAQService_GetMissing(t *testing.T) {
	t.Parallel()

	mockRepo := new(testhelpers.MockFAQRepository)
	mockRepo.On("Get", mock.Anything, "nothing").Return(nil, nil)

	_, err := NewFAQService(mockRepo).Get(context.Background(), "Nothing")
	assert.ErrorIs(t, err, ErrFAQNotFound)
}
