package mocks

import (
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/qolzam/telar/apps/comments/comments/events"
	"github.com/qolzam/telar/apps/comments/comments/models"
)

// MockNotifier is a mock implementation of events.Notifier
type MockNotifier struct {
	mock.Mock
}

var _ events.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) CommentCreated(comment *models.Comment, requestID string) {
	m.Called(comment, requestID)
}

func (m *MockNotifier) CommentUpdated(comment *models.Comment, requestID string) {
	m.Called(comment, requestID)
}

func (m *MockNotifier) CommentDeleted(comment *models.Comment, requestID string) {
	m.Called(comment, requestID)
}

func (m *MockNotifier) CommentRestored(comment *models.Comment, requestID string) {
	m.Called(comment, requestID)
}

func (m *MockNotifier) CommentLiked(comment *models.Comment, likedBy uuid.UUID, requestID string) {
	m.Called(comment, likedBy, requestID)
}

func (m *MockNotifier) CommentUnliked(comment *models.Comment, unlikedBy uuid.UUID, requestID string) {
	m.Called(comment, unlikedBy, requestID)
}

func (m *MockNotifier) CommentsBulkDeleted(postID uuid.UUID, count int64, requestID string) {
	m.Called(postID, count, requestID)
}
