package notify

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"news-aggregator/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

// dialWS serves the handler over httptest and connects a websocket client
// subscribed to the given query, waiting until the hub registration lands.
func dialWS(t *testing.T, hub *Hub, db *gorm.DB, searchQuery string) *websocket.Conn {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/news", NewWSHandler(hub, db).Serve)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/news?query=" + searchQuery
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(searchQuery, "en", "") == 1
	}, time.Second, 5*time.Millisecond)

	return conn
}

func TestServeAnswersGetUpdates(t *testing.T) {
	db := newTestDB(t)
	fresh := models.Article{Title: "Climate summit opens", URL: "http://n/1", Language: "en"}
	require.NoError(t, db.Create(&fresh).Error)

	hub := NewHub()
	conn := dialWS(t, hub, db, "climate")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"get_updates"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var payload struct {
		Type     string               `json:"type"`
		Articles []models.ArticleView `json:"articles"`
		Count    int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "article_updates", payload.Type)
	assert.Equal(t, 1, payload.Count)
	require.Len(t, payload.Articles, 1)
	assert.Equal(t, "Climate summit opens", payload.Articles[0].Title)
}

func TestServeInterleavesEventsAndReplies(t *testing.T) {
	db := newTestDB(t)
	hub := NewHub()
	conn := dialWS(t, hub, db, "climate")

	// Hub events and get_updates replies in flight at the same time; every
	// frame the client reads must still be one well-formed JSON message.
	const rounds = 200
	go func() {
		article := &models.Article{Title: "Storm front moves in", URL: "http://n/storm"}
		for i := 0; i < rounds; i++ {
			hub.PublishArticle("climate", "en", "", article)
		}
	}()
	go func() {
		for i := 0; i < rounds; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"get_updates"}`)); err != nil {
				return
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for received := 0; received < 100; received++ {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "frame %d unreadable", received)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(data, &payload), "frame %d is not one JSON message", received)
		assert.Contains(t, []any{EventArticleUpdate, "article_updates"}, payload["type"])
	}
}
