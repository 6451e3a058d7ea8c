package stub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanee/messenger/internal/models"
)

func newSeededServer() (*Server, *gin.Engine) {
	s := NewServer()
	s.AddUser(models.User{ID: 1, Name: "Amira", IsSeller: true}, "token-seller")
	s.AddUser(models.User{ID: 2, Name: "Khalid"}, "token-buyer")
	s.AddService(1, models.GigService{ID: 10, Title: "Logo design", Price: 50})
	return s, s.Router()
}

func doRequest(router *gin.Engine, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doJSON(router *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if payload != nil {
		json.NewEncoder(&buf).Encode(payload)
	}
	return doRequest(router, method, path, token, &buf, "application/json")
}

func sendText(t *testing.T, router *gin.Engine, token string, peer int64, text string) models.Message {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("body", text))
	require.NoError(t, writer.Close())

	w := doRequest(router, http.MethodPost, fmt.Sprintf("/v1/chat/messages/%d", peer), token, &buf, writer.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var msg models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	return msg
}

func TestAuthRequired(t *testing.T) {
	_, router := newSeededServer()

	w := doRequest(router, http.MethodGet, "/v1/me", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/v1/me", "bogus", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/v1/me", "token-seller", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "Amira", me.Name)
}

func TestSendMessageBumpsUnread(t *testing.T) {
	_, router := newSeededServer()

	msg := sendText(t, router, "token-seller", 2, "hello Khalid")
	assert.Equal(t, int64(1), msg.ID)
	assert.Equal(t, int64(1), msg.SenderID)
	assert.Equal(t, int64(2), msg.ReceiverID)
	assert.False(t, msg.CreatedAt.IsZero())

	// Receiver sees the unread count; sender does not.
	w := doRequest(router, http.MethodGet, "/v1/chat/unread", "token-buyer", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var unread models.UnreadMap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unread))
	assert.Equal(t, 1, unread[1])

	w = doRequest(router, http.MethodGet, "/v1/chat/unread", "token-seller", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	unread = models.UnreadMap{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unread))
	assert.Empty(t, unread)
}

func TestSendMessageRejectsEmpty(t *testing.T) {
	_, router := newSeededServer()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())
	w := doRequest(router, http.MethodPost, "/v1/chat/messages/2", "token-seller", &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMessagesAfterAndReadTracking(t *testing.T) {
	_, router := newSeededServer()

	for i := 0; i < 3; i++ {
		sendText(t, router, "token-seller", 2, fmt.Sprintf("m%d", i))
	}

	w := doRequest(router, http.MethodGet, "/v1/chat/messages/1?after=1", "token-buyer", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, int64(2), envelope.Data[0].ID)
	assert.Equal(t, int64(3), envelope.Data[1].ID)

	// Fetching the thread cleared the buyer's unread flag.
	w = doRequest(router, http.MethodGet, "/v1/chat/unread", "token-buyer", nil, "")
	var unread models.UnreadMap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unread))
	assert.Empty(t, unread)
}

func TestListMessagesInitialPageIsMostRecent(t *testing.T) {
	s, router := newSeededServer()
	for i := 0; i < 5; i++ {
		s.InsertMessage(models.Message{SenderID: 1, ReceiverID: 2, Body: fmt.Sprintf("m%d", i)})
	}

	w := doRequest(router, http.MethodGet, "/v1/chat/messages/1?limit=2", "token-buyer", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	// Last two, ascending.
	assert.Equal(t, int64(4), envelope.Data[0].ID)
	assert.Equal(t, int64(5), envelope.Data[1].ID)
}

func TestDeleteMessageAuthorOnly(t *testing.T) {
	_, router := newSeededServer()
	msg := sendText(t, router, "token-seller", 2, "oops")

	// The receiver cannot delete someone else's message.
	w := doRequest(router, http.MethodDelete, fmt.Sprintf("/v1/chat/messages/%d", msg.ID), "token-buyer", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/v1/chat/messages/%d", msg.ID), "token-seller", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// The entry survives as a placeholder.
	w = doRequest(router, http.MethodGet, "/v1/chat/messages/2", "token-seller", nil, "")
	var envelope struct {
		Data []models.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.True(t, envelope.Data[0].IsDeleted)
	assert.Equal(t, models.DeletedPlaceholder, envelope.Data[0].Body)
}

func TestListConversations(t *testing.T) {
	_, router := newSeededServer()
	sendText(t, router, "token-seller", 2, "first")
	sendText(t, router, "token-buyer", 1, "reply")

	w := doRequest(router, http.MethodGet, "/v1/chat/conversations", "token-seller", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.ConversationSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Khalid", envelope.Data[0].User.Name)
	assert.Equal(t, "reply", envelope.Data[0].LastMessage)
}

func createOrder(t *testing.T, router *gin.Engine, expiry string) int64 {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/v1/orders", "token-seller", gin.H{
		"service_id": 10, "buyer_id": 2, "amount": 75.0, "expiry_choice": expiry,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		OrderID      int64  `json:"order_id"`
		ServiceTitle string `json:"service_title"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Logo design", out.ServiceTitle)
	return out.OrderID
}

func TestOrderLifecycleAccept(t *testing.T) {
	_, router := newSeededServer()
	orderID := createOrder(t, router, "1_day")

	// Seller cannot accept their own proposal.
	w := doJSON(router, http.MethodPost, fmt.Sprintf("/v1/orders/%d/accept", orderID), "token-seller", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/v1/orders/%d/accept", orderID), "token-buyer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var decision struct {
		IsApproved bool `json:"is_approved"`
		IsExpired  bool `json:"is_expired"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.True(t, decision.IsApproved)
	assert.False(t, decision.IsExpired)

	// A second accept is the canonical double-click race.
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/v1/orders/%d/accept", orderID), "token-buyer", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var eb struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eb))
	assert.Equal(t, "This order has already been accepted", eb.Error)
}

func TestOrderExpiresByClock(t *testing.T) {
	s, router := newSeededServer()
	orderID := createOrder(t, router, "30_min")

	// Age the server clock past the expiry.
	s.Now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/v1/orders/%d/accept", orderID), "token-buyer", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var eb struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eb))
	assert.Equal(t, "This order has expired", eb.Error)

	// Expiry is terminal: the same message comes back on retry.
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/v1/orders/%d/accept", orderID), "token-buyer", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eb))
	assert.Equal(t, "This order has expired", eb.Error)
}

func TestOrderReject(t *testing.T) {
	_, router := newSeededServer()
	orderID := createOrder(t, router, "1_hour")

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/v1/orders/%d/reject", orderID), "token-buyer", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Accept after reject fails.
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/v1/orders/%d/accept", orderID), "token-buyer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/v1/orders/%d/reject", orderID), "token-buyer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderValidation(t *testing.T) {
	_, router := newSeededServer()

	w := doJSON(router, http.MethodPost, "/v1/orders", "token-seller", gin.H{
		"service_id": 10, "buyer_id": 2, "amount": 75.0, "expiry_choice": "never",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/v1/orders", "token-seller", gin.H{
		"service_id": 999, "buyer_id": 2, "amount": 75.0, "expiry_choice": "1_day",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatWSStreamsAndStopsWhenClientLeaves(t *testing.T) {
	_, router := newSeededServer()
	server := httptest.NewServer(router)
	defer server.Close()

	baseline := runtime.NumGoroutine()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/chat/ws?peer=2"
	header := http.Header{}
	header.Set("Authorization", "Bearer token-seller")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	// Messages inserted after the dial come through the stream.
	sendText(t, router, "token-buyer", 1, "over the wire")
	var got models.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "over the wire", got.Body)

	// Closing the client must end the handler even though the conversation
	// has gone quiet; its goroutines wind down instead of ticking forever.
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline+1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestNotificationCount(t *testing.T) {
	s, router := newSeededServer()
	s.SetNotificationCount(2, 4)

	w := doRequest(router, http.MethodGet, "/v1/notifications/unread-count", "token-buyer", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 4, out.Count)
}
