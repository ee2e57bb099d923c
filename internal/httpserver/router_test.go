package httpserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gramline/internal/config"
	"gramline/internal/httpserver"
	"gramline/internal/security"
	"gramline/internal/store/sqlite"
	"gramline/internal/ws"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db))

	cfg := &config.Config{
		CORSOrigins:    []string{"*"},
		PersistTimeout: 5 * time.Second,
	}
	tokenSvc := security.NewTokenService("test-secret", time.Hour)
	hasher := security.NewPasswordHasher(4)
	hub := ws.NewHub()

	router := httpserver.NewRouter(cfg, sqlite.NewRepositories(db), hub, tokenSvc, hasher)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type registeredUser struct {
	id    string
	token string
}

func registerUser(t *testing.T, srv *httptest.Server, username string) registeredUser {
	t.Helper()
	resp := postJSON(t, srv, "/auth/register", "", map[string]string{
		"username": username,
		"password": "Password1!",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.AccessToken)
	return registeredUser{id: body.User.ID, token: body.AccessToken}
}

func postJSON(t *testing.T, srv *httptest.Server, path, token string, payload any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, srv *httptest.Server, path, token string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestChatFlow(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")

	var chatID string

	t.Run("StartChatCreatesThenFinds", func(t *testing.T) {
		resp := postJSON(t, srv, "/chat/start", alice.token, map[string]string{"receiverId": bob.id})
		var chat struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&chat))
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		chatID = chat.ID

		// Starting again, from either side, finds the same chat.
		resp = postJSON(t, srv, "/chat/start", bob.token, map[string]string{"receiverId": alice.id})
		var again struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&again))
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, chatID, again.ID)
	})

	t.Run("StartChatRequiresAuth", func(t *testing.T) {
		resp := postJSON(t, srv, "/chat/start", "", map[string]string{"receiverId": bob.id})
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("SelfChatRejected", func(t *testing.T) {
		resp := postJSON(t, srv, "/chat/start", alice.token, map[string]string{"receiverId": alice.id})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownReceiver", func(t *testing.T) {
		resp := postJSON(t, srv, "/chat/start", alice.token, map[string]string{"receiverId": "no-such-user"})
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("SendAndListMessages", func(t *testing.T) {
		resp := postJSON(t, srv, "/messages", "", map[string]string{
			"senderId": alice.id, "receiverId": bob.id, "text": "hello bob",
		})
		var sent struct {
			ID        string `json:"id"`
			ChatID    string `json:"chatId"`
			CreatedAt string `json:"createdAt"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sent))
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, chatID, sent.ChatID)
		// Wire timestamps are UTC with millisecond precision.
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, sent.CreatedAt)

		var msgs []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		}
		resp = getJSON(t, srv, fmt.Sprintf("/messages/%s/%s", bob.id, alice.id), "", &msgs)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		if assert.Len(t, msgs, 1) {
			assert.Equal(t, "hello bob", msgs[0].Text)
		}
	})

	t.Run("EmptyMessageRejected", func(t *testing.T) {
		resp := postJSON(t, srv, "/messages", "", map[string]string{
			"senderId": alice.id, "receiverId": bob.id, "text": "   ",
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnreadScopedToReceiver", func(t *testing.T) {
		var bobChats []struct {
			ID          string `json:"id"`
			UnreadCount int    `json:"unreadCount"`
			LastMessage string `json:"lastMessage"`
		}
		resp := getJSON(t, srv, "/chat/list", bob.token, &bobChats)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, bobChats, 1)
		assert.Equal(t, 1, bobChats[0].UnreadCount)
		assert.Equal(t, "hello bob", bobChats[0].LastMessage)

		var aliceChats []struct {
			UnreadCount int `json:"unreadCount"`
		}
		getJSON(t, srv, "/chat/list", alice.token, &aliceChats)
		require.Len(t, aliceChats, 1)
		assert.Equal(t, 0, aliceChats[0].UnreadCount)
	})

	t.Run("MarkRead", func(t *testing.T) {
		resp := postJSON(t, srv, "/chat/"+chatID+"/read", bob.token, struct{}{})
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var bobChats []struct {
			UnreadCount int `json:"unreadCount"`
		}
		getJSON(t, srv, "/chat/list", bob.token, &bobChats)
		require.Len(t, bobChats, 1)
		assert.Equal(t, 0, bobChats[0].UnreadCount)
	})
}

func TestNotificationFlow(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")

	t.Run("CreateAndList", func(t *testing.T) {
		resp := postJSON(t, srv, "/notification", "", map[string]string{
			"type": "follow", "fromUser": alice.id, "toUser": bob.id,
		})
		var created struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			FromUser struct {
				Username string `json:"username"`
			} `json:"fromUser"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "follow", created.Type)
		assert.Equal(t, "alice", created.FromUser.Username)

		var listed []struct {
			ID string `json:"id"`
		}
		getJSON(t, srv, "/notification/"+bob.id, "", &listed)
		if assert.Len(t, listed, 1) {
			assert.Equal(t, created.ID, listed[0].ID)
		}
	})

	t.Run("SelfNotificationSkipped", func(t *testing.T) {
		resp := postJSON(t, srv, "/notification", "", map[string]string{
			"type": "like", "fromUser": alice.id, "toUser": alice.id,
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var listed []struct {
			ID string `json:"id"`
		}
		getJSON(t, srv, "/notification/"+alice.id, "", &listed)
		assert.Empty(t, listed)
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		resp := postJSON(t, srv, "/notification", "", map[string]string{
			"type": "poke", "fromUser": alice.id, "toUser": bob.id,
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRealtimeGateway(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	dial := func(t *testing.T) *websocket.Conn {
		t.Helper()
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	join := func(t *testing.T, conn *websocket.Conn, userID string) {
		t.Helper()
		id, err := json.Marshal(userID)
		require.NoError(t, err)
		require.NoError(t, conn.WriteJSON(map[string]json.RawMessage{
			"event": json.RawMessage(`"join"`),
			"data":  id,
		}))
	}

	t.Run("SocketSendReachesJoinedReceiver", func(t *testing.T) {
		receiver := dial(t)
		join(t, receiver, bob.id)
		sender := dial(t)
		join(t, sender, alice.id)

		// Joins race the send; give the gateway a beat to bind the receiver.
		time.Sleep(100 * time.Millisecond)

		require.NoError(t, sender.WriteJSON(map[string]any{
			"event": "send-message",
			"data":  map[string]string{"senderId": alice.id, "receiverId": bob.id, "text": "over the wire"},
		}))

		receiver.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev struct {
			Event string `json:"event"`
			Data  struct {
				Text     string `json:"text"`
				SenderID string `json:"senderId"`
				ChatID   string `json:"chatId"`
			} `json:"data"`
		}
		require.NoError(t, receiver.ReadJSON(&ev))
		assert.Equal(t, "receive-message", ev.Event)
		assert.Equal(t, "over the wire", ev.Data.Text)
		assert.Equal(t, alice.id, ev.Data.SenderID)

		// The socket send also persisted.
		var msgs []struct {
			Text string `json:"text"`
		}
		getJSON(t, srv, fmt.Sprintf("/messages/%s/%s", alice.id, bob.id), "", &msgs)
		require.Len(t, msgs, 1)
		assert.Equal(t, "over the wire", msgs[0].Text)
	})

	t.Run("HTTPSendPushesToSocket", func(t *testing.T) {
		receiver := dial(t)
		join(t, receiver, bob.id)
		time.Sleep(100 * time.Millisecond)

		resp := postJSON(t, srv, "/messages", "", map[string]string{
			"senderId": alice.id, "receiverId": bob.id, "text": "via http",
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		receiver.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev struct {
			Event string `json:"event"`
			Data  struct {
				Text string `json:"text"`
			} `json:"data"`
		}
		require.NoError(t, receiver.ReadJSON(&ev))
		assert.Equal(t, "receive-message", ev.Event)
		assert.Equal(t, "via http", ev.Data.Text)
	})

	t.Run("OfflineReceiverStillPersisted", func(t *testing.T) {
		resp := postJSON(t, srv, "/messages", "", map[string]string{
			"senderId": bob.id, "receiverId": alice.id, "text": "while you were away",
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var msgs []struct {
			Text string `json:"text"`
		}
		getJSON(t, srv, fmt.Sprintf("/messages/%s/%s", alice.id, bob.id), "", &msgs)
		require.NotEmpty(t, msgs)
		assert.Equal(t, "while you were away", msgs[len(msgs)-1].Text)
	})
}
