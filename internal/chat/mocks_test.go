package chat_test

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/models"
)

// --- Mocks ---

// MockMessagesAPI
type MockMessagesAPI struct {
	mock.Mock
}

func (m *MockMessagesAPI) FetchMessages(ctx context.Context, peerID, afterID int64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, peerID, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessagesAPI) SendText(ctx context.Context, peerID int64, text string) (*models.Message, error) {
	args := m.Called(ctx, peerID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessagesAPI) SendFile(ctx context.Context, peerID int64, filename string, file io.Reader) (*models.Message, error) {
	args := m.Called(ctx, peerID, filename, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessagesAPI) SendOrderMessage(ctx context.Context, peerID int64, body string, meta *models.OrderMeta) (*models.Message, error) {
	args := m.Called(ctx, peerID, body, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessagesAPI) DeleteMessage(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MockMessagesAPI) UnreadMap(ctx context.Context) (models.UnreadMap, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.UnreadMap), args.Error(1)
}

// MockOrdersAPI
type MockOrdersAPI struct {
	mock.Mock
}

func (m *MockOrdersAPI) ListServices(ctx context.Context) ([]models.GigService, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GigService), args.Error(1)
}

func (m *MockOrdersAPI) CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*api.CreatedOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CreatedOrder), args.Error(1)
}

func (m *MockOrdersAPI) AcceptOrder(ctx context.Context, orderID int64) (*api.OrderDecision, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.OrderDecision), args.Error(1)
}

func (m *MockOrdersAPI) RejectOrder(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// MockUsersAPI
type MockUsersAPI struct {
	mock.Mock
}

func (m *MockUsersAPI) Me(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsersAPI) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsersAPI) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationSummary), args.Error(1)
}

// MockNotificationsAPI
type MockNotificationsAPI struct {
	mock.Mock
}

func (m *MockNotificationsAPI) UnreadNotificationCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// recordingToaster captures toast output for assertions.
type recordingToaster struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (t *recordingToaster) Info(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.infos = append(t.infos, msg)
}

func (t *recordingToaster) Error(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, msg)
}

func (t *recordingToaster) Infos() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.infos...)
}

func (t *recordingToaster) Errors() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.errors...)
}
