// Package notify fans article events out to websocket subscribers grouped
// by the search they are watching. Delivery is best-effort: a slow
// subscriber loses events rather than stalling ingestion.
package notify

import (
	"fmt"
	"log"
	"sync"

	"news-aggregator/internal/models"
)

const (
	EventArticleUpdate = "article_update"
	EventBatchUpdate   = "batch_update"

	// subscriberBuffer is the per-connection event backlog before events
	// are dropped.
	subscriberBuffer = 16
)

// Event is one message delivered to subscribers.
type Event struct {
	Type     string               `json:"type"`
	Article  *models.ArticleView  `json:"article,omitempty"`
	Articles []models.ArticleView `json:"articles,omitempty"`
	Count    int                  `json:"count,omitempty"`
}

// TopicKey builds the group key for a search. Subscribers and publishers
// must agree on it exactly.
func TopicKey(query, language, country string) string {
	if country == "" {
		country = "all"
	}
	return fmt.Sprintf("news_%s_%s_%s", query, language, country)
}

// Subscriber is one registered event consumer.
type Subscriber struct {
	Events chan Event
	topic  string
}

// Hub routes events to subscribers by topic key.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: map[string]map[*Subscriber]struct{}{}}
}

// Subscribe registers a consumer for a search's events.
func (h *Hub) Subscribe(query, language, country string) *Subscriber {
	sub := &Subscriber{
		Events: make(chan Event, subscriberBuffer),
		topic:  TopicKey(query, language, country),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[sub.topic] == nil {
		h.topics[sub.topic] = map[*Subscriber]struct{}{}
	}
	h.topics[sub.topic][sub] = struct{}{}
	return sub
}

// Unsubscribe removes a consumer and closes its event channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
	close(sub.Events)
}

// SubscriberCount reports how many consumers a topic currently has.
func (h *Hub) SubscriberCount(query, language, country string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[TopicKey(query, language, country)])
}

// PublishArticle delivers a single-article event to the search's topic.
func (h *Hub) PublishArticle(query, language, country string, article *models.Article) {
	view := models.NewArticleView(article, true)
	h.publish(TopicKey(query, language, country), Event{
		Type:    EventArticleUpdate,
		Article: &view,
	})
}

// PublishBatch delivers a chunk-completed event with all articles of the
// chunk.
func (h *Hub) PublishBatch(query, language, country string, articles []*models.Article) {
	views := make([]models.ArticleView, len(articles))
	for i, article := range articles {
		views[i] = models.NewArticleView(article, true)
	}
	h.publish(TopicKey(query, language, country), Event{
		Type:     EventBatchUpdate,
		Articles: views,
		Count:    len(views),
	})
}

// publish sends the event to every subscriber of the topic without
// blocking; full buffers drop the event with a log line.
func (h *Hub) publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.topics[topic] {
		select {
		case sub.Events <- event:
		default:
			log.Printf("Dropping %s event for slow subscriber on %s", event.Type, topic)
		}
	}
}
