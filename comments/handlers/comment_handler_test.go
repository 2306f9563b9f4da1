package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/telar/apps/comments/comments"
	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/handlers"
	"github.com/qolzam/telar/apps/comments/comments/models"
	platformconfig "github.com/qolzam/telar/apps/comments/internal/platform/config"
	"github.com/qolzam/telar/apps/comments/internal/testutil"
	"github.com/qolzam/telar/apps/comments/internal/types"
)

// MockCommentService implements the CommentService interface for testing
type MockCommentService struct {
	createFunc        func(ctx context.Context, req *models.CreateCommentRequest, caller types.CallerContext) (*models.Comment, error)
	findByIDFunc      func(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)
	listByPostFunc    func(ctx context.Context, query *models.ListCommentsQuery) (*models.CommentPage, error)
	listRepliesFunc   func(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error)
	countByAuthorFunc func(ctx context.Context, authorID uuid.UUID) (int64, error)
	updateFunc        func(ctx context.Context, commentID uuid.UUID, req *models.UpdateCommentRequest, caller types.CallerContext) (*models.Comment, error)
	likeFunc          func(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error)
	unlikeFunc        func(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error)
	removeFunc        func(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) error
	restoreFunc       func(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error)
	cascadeFunc       func(ctx context.Context, postID uuid.UUID, requestID string) (int64, error)
}

var errNotConfigured = errors.New("mock not configured")

func (m *MockCommentService) Create(ctx context.Context, req *models.CreateCommentRequest, caller types.CallerContext) (*models.Comment, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req, caller)
	}
	return nil, errNotConfigured
}

func (m *MockCommentService) FindByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, commentID)
	}
	return nil, errNotConfigured
}

func (m *MockCommentService) ListByPost(ctx context.Context, query *models.ListCommentsQuery) (*models.CommentPage, error) {
	if m.listByPostFunc != nil {
		return m.listByPostFunc(ctx, query)
	}
	return nil, errNotConfigured
}

func (m *MockCommentService) ListReplies(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error) {
	if m.listRepliesFunc != nil {
		return m.listRepliesFunc(ctx, postID, parentID)
	}
	return nil, errNotConfigured
}

func (m *MockCommentService) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	if m.countByAuthorFunc != nil {
		return m.countByAuthorFunc(ctx, authorID)
	}
	return 0, errNotConfigured
}

func (m *MockCommentService) Update(ctx context.Context, commentID uuid.UUID, req *models.UpdateCommentRequest, caller types.CallerContext) (*models.Comment, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, commentID, req, caller)
	}
	return nil, errNotConfigured
}

func (m *MockCommentService) Like(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
	if m.likeFunc != nil {
		return m.likeFunc(ctx, commentID, caller)
	}
	return nil, errNotConfigured
}

func (m *MockCommentService) Unlike(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
	if m.unlikeFunc != nil {
		return m.unlikeFunc(ctx, commentID, caller)
	}
	return nil, errNotConfigured
}

func (m *MockCommentService) Remove(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) error {
	if m.removeFunc != nil {
		return m.removeFunc(ctx, commentID, caller)
	}
	return errNotConfigured
}

func (m *MockCommentService) Restore(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
	if m.restoreFunc != nil {
		return m.restoreFunc(ctx, commentID, caller)
	}
	return nil, errNotConfigured
}

func (m *MockCommentService) CascadeDeleteByPost(ctx context.Context, postID uuid.UUID, requestID string) (int64, error) {
	if m.cascadeFunc != nil {
		return m.cascadeFunc(ctx, postID, requestID)
	}
	return 0, errNotConfigured
}

func (m *MockCommentService) Ping(ctx context.Context) error {
	return nil
}

type envelope struct {
	Data       map[string]interface{} `json:"data"`
	StatusCode int                    `json:"statusCode"`
	Message    string                 `json:"message"`
	Timestamp  string                 `json:"timestamp"`
}

func setupTestApp(t *testing.T, mock *MockCommentService) *testutil.HTTPHelper {
	t.Helper()

	app := fiber.New()
	cfg := &platformconfig.Config{RateLimit: platformconfig.RateLimitConfig{Enabled: false}}
	comments.RegisterRoutes(app, &comments.CommentsHandlers{
		CommentHandler: handlers.NewCommentHandler(mock),
	}, cfg, nil)

	return testutil.NewHTTPHelper(t, app)
}

func testComment() *models.Comment {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Comment{
		CommentID: uuid.Must(uuid.NewV4()),
		PostID:    uuid.Must(uuid.NewV4()),
		AuthorID:  uuid.Must(uuid.NewV4()),
		Content:   "hello",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateComment_Success(t *testing.T) {
	created := testComment()
	userID := uuid.Must(uuid.NewV4())

	mock := &MockCommentService{
		createFunc: func(ctx context.Context, req *models.CreateCommentRequest, caller types.CallerContext) (*models.Comment, error) {
			assert.Equal(t, created.PostID.String(), req.PostID)
			assert.Equal(t, "hello", req.Content)
			assert.Equal(t, userID, caller.UserID)
			assert.Equal(t, "req-create", caller.RequestID)
			return created, nil
		},
	}
	helper := setupTestApp(t, mock)

	var body envelope
	resp := helper.NewRequest(http.MethodPost, "/comments", map[string]interface{}{
		"postId":  created.PostID.String(),
		"content": "hello",
	}).WithCaller(userID.String(), false).
		WithHeader(types.HeaderRequestID, "req-create").
		SendJSON(&body)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "req-create", resp.Header.Get(types.HeaderRequestID))
	assert.Equal(t, http.StatusCreated, body.StatusCode)
	assert.Equal(t, "Success", body.Message)
	assert.Equal(t, created.CommentID.String(), body.Data["commentId"])
	assert.Equal(t, float64(0), body.Data["likesCount"])
	assert.Equal(t, "2024-03-01T10:00:00Z", body.Data["createdAt"])
}

func TestCreateComment_InvalidBody(t *testing.T) {
	helper := setupTestApp(t, &MockCommentService{})

	var body commentErrors.ErrorResponse
	resp := helper.NewRequest(http.MethodPost, "/comments", "{not json").
		WithHeader(types.HeaderContentType, "application/json").
		SendJSON(&body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, commentErrors.CodeInvalidArgument, body.Code)
}

func TestCreateComment_ServiceValidationError(t *testing.T) {
	mock := &MockCommentService{
		createFunc: func(ctx context.Context, req *models.CreateCommentRequest, caller types.CallerContext) (*models.Comment, error) {
			return nil, commentErrors.InvalidArgument("content cannot be empty or whitespace only")
		},
	}
	helper := setupTestApp(t, mock)

	var body commentErrors.ErrorResponse
	resp := helper.NewRequest(http.MethodPost, "/comments", map[string]string{"postId": "x"}).SendJSON(&body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "content cannot be empty or whitespace only", body.Message)
	assert.NotEmpty(t, body.Timestamp)
}

func TestListComments(t *testing.T) {
	postID := uuid.Must(uuid.NewV4())
	item := testComment()

	t.Run("decodes query and renders the page", func(t *testing.T) {
		mock := &MockCommentService{
			listByPostFunc: func(ctx context.Context, query *models.ListCommentsQuery) (*models.CommentPage, error) {
				assert.Equal(t, postID.String(), query.PostID)
				assert.Equal(t, "abc", query.Cursor)
				assert.Equal(t, 5, query.Limit)
				assert.Equal(t, "asc", query.Sort)
				return &models.CommentPage{Items: []models.Comment{*item}, NextCursor: "next", TotalCount: 7}, nil
			},
		}
		helper := setupTestApp(t, mock)

		var body envelope
		resp := helper.NewRequest(http.MethodGet, "/comments?postId="+postID.String()+"&cursor=abc&limit=5&sort=asc", nil).SendJSON(&body)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "next", body.Data["nextCursor"])
		assert.Equal(t, float64(7), body.Data["totalCount"])
		assert.Len(t, body.Data["items"], 1)
	})

	t.Run("last page omits nextCursor", func(t *testing.T) {
		mock := &MockCommentService{
			listByPostFunc: func(ctx context.Context, query *models.ListCommentsQuery) (*models.CommentPage, error) {
				return &models.CommentPage{}, nil
			},
		}
		helper := setupTestApp(t, mock)

		var body envelope
		helper.NewRequest(http.MethodGet, "/comments?postId="+postID.String(), nil).SendJSON(&body)

		_, present := body.Data["nextCursor"]
		assert.False(t, present)
		assert.Equal(t, []interface{}{}, body.Data["items"])
	})

	t.Run("non-numeric limit is rejected", func(t *testing.T) {
		helper := setupTestApp(t, &MockCommentService{})

		var body commentErrors.ErrorResponse
		resp := helper.NewRequest(http.MethodGet, "/comments?postId="+postID.String()+"&limit=ten", nil).SendJSON(&body)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, commentErrors.CodeInvalidArgument, body.Code)
	})
}

func TestGetComment(t *testing.T) {
	t.Run("deleted comments render the placeholder", func(t *testing.T) {
		comment := testComment()
		comment.IsDeleted = true
		mock := &MockCommentService{
			findByIDFunc: func(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
				assert.Equal(t, comment.CommentID, commentID)
				return comment, nil
			},
		}
		helper := setupTestApp(t, mock)

		var body envelope
		resp := helper.NewRequest(http.MethodGet, "/comments/"+comment.CommentID.String(), nil).SendJSON(&body)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.DeletedContentPlaceholder, body.Data["content"])
		assert.Equal(t, true, body.Data["isDeleted"])
	})

	t.Run("missing comment", func(t *testing.T) {
		mock := &MockCommentService{
			findByIDFunc: func(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
				return nil, commentErrors.NotFound("Comment with ID " + commentID.String() + " not found")
			},
		}
		helper := setupTestApp(t, mock)

		var body commentErrors.ErrorResponse
		resp := helper.NewRequest(http.MethodGet, "/comments/"+uuid.Must(uuid.NewV4()).String(), nil).SendJSON(&body)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, commentErrors.CodeNotFound, body.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		helper := setupTestApp(t, &MockCommentService{})

		resp := helper.NewRequest(http.MethodGet, "/comments/not-a-uuid", nil).SendJSON(nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("internal errors hide their cause", func(t *testing.T) {
		mock := &MockCommentService{
			findByIDFunc: func(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
				return nil, commentErrors.Internal("failed to find comment", errors.New("pq: connection reset"))
			},
		}
		helper := setupTestApp(t, mock)

		var body commentErrors.ErrorResponse
		resp := helper.NewRequest(http.MethodGet, "/comments/"+uuid.Must(uuid.NewV4()).String(), nil).SendJSON(&body)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.NotContains(t, body.Message, "pq:")
	})
}

func TestGetReplies(t *testing.T) {
	parent := testComment()
	reply := testComment()

	mock := &MockCommentService{
		listRepliesFunc: func(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error) {
			assert.Equal(t, parent.PostID, postID)
			assert.Equal(t, parent.CommentID, parentID)
			return []models.Comment{*reply}, nil
		},
	}
	helper := setupTestApp(t, mock)

	var body struct {
		Data []models.CommentResponse `json:"data"`
	}
	resp := helper.NewRequest(http.MethodGet, "/comments/"+parent.CommentID.String()+"/replies?postId="+parent.PostID.String(), nil).SendJSON(&body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Data, 1)
	assert.Equal(t, reply.CommentID.String(), body.Data[0].CommentID)

	resp = helper.NewRequest(http.MethodGet, "/comments/"+parent.CommentID.String()+"/replies", nil).SendJSON(nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCountByAuthor(t *testing.T) {
	authorID := uuid.Must(uuid.NewV4())

	mock := &MockCommentService{
		countByAuthorFunc: func(ctx context.Context, id uuid.UUID) (int64, error) {
			assert.Equal(t, authorID, id)
			return 7, nil
		},
	}
	helper := setupTestApp(t, mock)

	var body struct {
		Data models.AuthorCommentCount `json:"data"`
	}
	resp := helper.NewRequest(http.MethodGet, "/comments/authors/"+authorID.String()+"/count", nil).SendJSON(&body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, authorID.String(), body.Data.AuthorID)
	assert.Equal(t, int64(7), body.Data.Count)

	resp = helper.NewRequest(http.MethodGet, "/comments/authors/not-a-uuid/count", nil).SendJSON(nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMutations_RequireUser(t *testing.T) {
	helper := setupTestApp(t, &MockCommentService{})
	id := uuid.Must(uuid.NewV4()).String()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPatch, "/comments/" + id},
		{http.MethodDelete, "/comments/" + id},
		{http.MethodPost, "/comments/" + id + "/like"},
		{http.MethodDelete, "/comments/" + id + "/like"},
		{http.MethodPost, "/comments/" + id + "/restore"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			var body commentErrors.ErrorResponse
			resp := helper.NewRequest(route.method, route.path, nil).SendJSON(&body)

			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, "User ID is required", body.Message)
		})
	}
}

func TestUpdateComment(t *testing.T) {
	comment := testComment()
	userID := uuid.Must(uuid.NewV4())

	mock := &MockCommentService{
		updateFunc: func(ctx context.Context, commentID uuid.UUID, req *models.UpdateCommentRequest, caller types.CallerContext) (*models.Comment, error) {
			require.NotNil(t, req.Content)
			assert.Equal(t, "edited", *req.Content)
			if caller.UserID != userID {
				return nil, commentErrors.Forbidden("You can only edit your own comments")
			}
			updated := *comment
			updated.Content = *req.Content
			return &updated, nil
		},
	}
	helper := setupTestApp(t, mock)

	var body envelope
	resp := helper.NewRequest(http.MethodPatch, "/comments/"+comment.CommentID.String(), map[string]string{"content": "edited"}).
		WithCaller(userID.String(), false).
		SendJSON(&body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "edited", body.Data["content"])

	var errBody commentErrors.ErrorResponse
	resp = helper.NewRequest(http.MethodPatch, "/comments/"+comment.CommentID.String(), map[string]string{"content": "edited"}).
		WithCaller(uuid.Must(uuid.NewV4()).String(), false).
		SendJSON(&errBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You can only edit your own comments", errBody.Message)
}

func TestDeleteComment(t *testing.T) {
	commentID := uuid.Must(uuid.NewV4())
	moderatorID := uuid.Must(uuid.NewV4())

	mock := &MockCommentService{
		removeFunc: func(ctx context.Context, id uuid.UUID, caller types.CallerContext) error {
			assert.Equal(t, commentID, id)
			assert.True(t, caller.IsModerator)
			if caller.UserID != moderatorID {
				return commentErrors.Conflict("Comment is already deleted")
			}
			return nil
		},
	}
	helper := setupTestApp(t, mock)

	resp := helper.NewRequest(http.MethodDelete, "/comments/"+commentID.String(), nil).
		WithCaller(moderatorID.String(), true).
		Send()
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var body commentErrors.ErrorResponse
	resp = helper.NewRequest(http.MethodDelete, "/comments/"+commentID.String(), nil).
		WithCaller(uuid.Must(uuid.NewV4()).String(), true).
		SendJSON(&body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, commentErrors.CodeConflict, body.Code)
}

func TestLikeUnlikeRestore(t *testing.T) {
	comment := testComment()
	userID := uuid.Must(uuid.NewV4())

	withLikes := func(n int64) *models.Comment {
		c := *comment
		c.LikesCount = n
		return &c
	}

	mock := &MockCommentService{
		likeFunc: func(ctx context.Context, id uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
			assert.Equal(t, userID, caller.UserID)
			return withLikes(1), nil
		},
		unlikeFunc: func(ctx context.Context, id uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
			return withLikes(0), nil
		},
		restoreFunc: func(ctx context.Context, id uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
			return nil, commentErrors.Conflict("Comment is not deleted")
		},
	}
	helper := setupTestApp(t, mock)
	path := "/comments/" + comment.CommentID.String()

	var liked envelope
	resp := helper.NewRequest(http.MethodPost, path+"/like", nil).WithCaller(userID.String(), false).SendJSON(&liked)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), liked.Data["likesCount"])

	var unliked envelope
	resp = helper.NewRequest(http.MethodDelete, path+"/like", nil).WithCaller(userID.String(), false).SendJSON(&unliked)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), unliked.Data["likesCount"])

	var conflict commentErrors.ErrorResponse
	resp = helper.NewRequest(http.MethodPost, path+"/restore", nil).WithCaller(userID.String(), false).SendJSON(&conflict)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Comment is not deleted", conflict.Message)
}
