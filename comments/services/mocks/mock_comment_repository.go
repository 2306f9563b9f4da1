// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mocks

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/comments/pagination"
	commentRepository "github.com/qolzam/telar/apps/comments/comments/repository"
)

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	mock.Mock
}

var _ commentRepository.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) comment(args mock.Arguments) (*models.Comment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) FindByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	return m.comment(m.Called(ctx, commentID))
}

func (m *MockCommentRepository) FindPage(ctx context.Context, query pagination.PageQuery) ([]models.Comment, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockCommentRepository) CountActiveByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentRepository) FindReplies(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error) {
	args := m.Called(ctx, postID, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockCommentRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentRepository) UpdateContent(ctx context.Context, commentID uuid.UUID, content string, updatedAt time.Time) (*models.Comment, error) {
	return m.comment(m.Called(ctx, commentID, content, updatedAt))
}

func (m *MockCommentRepository) SoftDelete(ctx context.Context, commentID, deletedBy uuid.UUID, at time.Time) (*models.Comment, error) {
	return m.comment(m.Called(ctx, commentID, deletedBy, at))
}

func (m *MockCommentRepository) Restore(ctx context.Context, commentID uuid.UUID, at time.Time) (*models.Comment, error) {
	return m.comment(m.Called(ctx, commentID, at))
}

func (m *MockCommentRepository) IncrementLikes(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	return m.comment(m.Called(ctx, commentID))
}

func (m *MockCommentRepository) DecrementLikes(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	return m.comment(m.Called(ctx, commentID))
}

func (m *MockCommentRepository) SoftDeleteByPost(ctx context.Context, postID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, postID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
