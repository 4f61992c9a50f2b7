package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"news-aggregator/internal/models"
	"news-aggregator/internal/query"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// recentWindow bounds what get_updates considers "new".
const recentWindow = 10 * time.Minute

// replyBuffer holds pending get_updates replies for the writer goroutine.
const replyBuffer = 8

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler serves the live-updates websocket endpoint. Each connection is
// one hub subscriber keyed by the search it watches.
type WSHandler struct {
	hub *Hub
	db  *gorm.DB
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(hub *Hub, db *gorm.DB) *WSHandler {
	return &WSHandler{hub: hub, db: db}
}

// clientMessage is what subscribers may send; only get_updates is
// understood.
type clientMessage struct {
	Type string `json:"type"`
}

// Serve upgrades the connection and pumps hub events to it until either
// side closes. A get_updates request answers with articles stored in the
// last ten minutes for the watched search.
func (h *WSHandler) Serve(c *gin.Context) {
	searchQuery := c.DefaultQuery("query", "")
	language := c.DefaultQuery("language", "en")
	country := c.DefaultQuery("country", "")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	sub := h.hub.Subscribe(searchQuery, language, country)
	log.Printf("Websocket subscriber joined %s", TopicKey(searchQuery, language, country))

	// The connection permits one concurrent writer. Hub events and
	// get_updates replies both go through the writer goroutine below; the
	// read loop never writes to the connection itself.
	replies := make(chan any, replyBuffer)
	done := make(chan struct{})

	go func() {
		defer conn.Close()
		for {
			select {
			case event, ok := <-sub.Events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case reply := <-replies:
				if err := conn.WriteJSON(reply); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != "get_updates" {
			continue
		}

		articles, err := h.RecentArticles(searchQuery, language, country)
		if err != nil {
			log.Printf("Failed to load recent articles: %v", err)
			continue
		}
		select {
		case replies <- gin.H{
			"type":     "article_updates",
			"articles": articles,
			"count":    len(articles),
		}:
		default:
			log.Printf("Dropping get_updates reply for slow subscriber on %s", TopicKey(searchQuery, language, country))
		}
	}

	close(done)
	h.hub.Unsubscribe(sub)
	log.Printf("Websocket subscriber left %s", TopicKey(searchQuery, language, country))
}

// RecentArticles loads articles stored within the recent window that match
// the watched search.
func (h *WSHandler) RecentArticles(searchQuery, language, country string) ([]models.ArticleView, error) {
	db := h.db.Model(&models.Article{}).
		Scopes(query.ArticleFilter(query.Parse(searchQuery))).
		Where("articles.created_at >= ?", time.Now().Add(-recentWindow))

	if language != "" {
		db = db.Where("articles.language = ? OR articles.language = ''", language)
	}
	if country != "" {
		db = db.Where("articles.country = ? OR articles.country = ''", country)
	}

	var articles []models.Article
	err := db.Distinct("articles.*").
		Order("articles.created_at DESC").
		Limit(20).
		Preload("Source").
		Find(&articles).Error
	if err != nil {
		return nil, err
	}

	return models.NewArticleViews(articles, true), nil
}
