package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"
)

const (
	// maxClassifierChars caps text sent to the model to prevent overflow.
	maxClassifierChars = 2000
	// minClassifiableLength is the shortest text worth classifying.
	minClassifiableLength = 10
	// asciiRatioThreshold gates out text unlikely to be English; the model
	// is English-only.
	asciiRatioThreshold = 0.7

	taskFakeNews  = "fake_news_detection"
	taskSentiment = "sentiment_analysis"
)

// Prediction holds the classifier output for one text. Nil fields mean the
// text was gated out or the model was unavailable.
type Prediction struct {
	IsFake    *bool   `json:"is_fake"`
	Sentiment *string `json:"sentiment"`
}

// Classifier runs the multi-task fake-news/sentiment model through the
// inference sidecar. It is constructed once per worker process. A classifier
// that failed to initialize stays usable: every PredictBatch call returns
// all-nil predictions instead of an error, so ingestion never blocks on
// model availability.
type Classifier struct {
	endpoint    string
	labelMaps   map[string]map[int]string
	httpClient  *http.Client
	initialized bool
}

// NewClassifier creates the classifier from the label-map file and inference
// endpoint. Initialization failure is logged, not returned: the caller gets
// a degraded but working instance.
func NewClassifier(endpoint, labelMapsPath string) *Classifier {
	c := &Classifier{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	labelMaps, err := loadLabelMaps(labelMapsPath)
	if err != nil {
		log.Printf("Failed to initialize classifier: %v", err)
		return c
	}

	c.labelMaps = labelMaps
	c.initialized = true
	return c
}

// IsReady reports whether the classifier initialized successfully.
func (c *Classifier) IsReady() bool {
	return c.initialized
}

// loadLabelMaps reads the class-index-to-label mapping produced at training
// time, keyed by task name with string-keyed class indices.
func loadLabelMaps(path string) (map[string]map[int]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading label maps: %w", err)
	}

	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing label maps: %w", err)
	}

	labelMaps := make(map[string]map[int]string, len(raw))
	for task, mapping := range raw {
		labelMaps[task] = make(map[int]string, len(mapping))
		for key, label := range mapping {
			var idx int
			if _, err := fmt.Sscanf(key, "%d", &idx); err != nil {
				return nil, fmt.Errorf("label map key %q for task %s is not an integer", key, task)
			}
			labelMaps[task][idx] = label
		}
	}

	return labelMaps, nil
}

type classifyRequest struct {
	Texts []string `json:"texts"`
	Tasks []string `json:"tasks"`
}

type classifyResponse struct {
	Predictions []map[string]int `json:"predictions"`
}

// PredictBatch classifies a batch of texts. The result is index-aligned with
// the input and never shorter; texts gated out by the language heuristic get
// nil predictions. Errors are logged and degrade to nil predictions; this
// method never fails the caller.
func (c *Classifier) PredictBatch(ctx context.Context, texts []string) []Prediction {
	results := make([]Prediction, len(texts))
	if len(texts) == 0 {
		return results
	}

	if !c.initialized {
		log.Println("Classifier not initialized, returning empty predictions")
		return results
	}

	// Gate out text the English-only model cannot score.
	var filtered []string
	var filteredIndices []int
	for i, text := range texts {
		if !LooksClassifiable(text) {
			continue
		}
		if runes := []rune(text); len(runes) > maxClassifierChars {
			text = string(runes[:maxClassifierChars])
		}
		filtered = append(filtered, text)
		filteredIndices = append(filteredIndices, i)
	}

	if len(filtered) == 0 {
		return results
	}

	predictions, err := c.classify(ctx, filtered)
	if err != nil {
		log.Printf("Classifier inference failed: %v", err)
		return results
	}

	for j, pred := range predictions {
		if j >= len(filteredIndices) {
			break
		}
		origIdx := filteredIndices[j]

		if classID, ok := pred[taskFakeNews]; ok {
			if label, ok := c.labelMaps[taskFakeNews][classID]; ok {
				isFake := strings.EqualFold(label, "fake")
				results[origIdx].IsFake = &isFake
			}
		}
		if classID, ok := pred[taskSentiment]; ok {
			if label, ok := c.labelMaps[taskSentiment][classID]; ok {
				sentiment := strings.ToLower(label)
				results[origIdx].Sentiment = &sentiment
			}
		}
	}

	return results
}

// classify performs the HTTP round trip to the inference sidecar.
func (c *Classifier) classify(ctx context.Context, texts []string) ([]map[string]int, error) {
	jsonBody, err := json.Marshal(classifyRequest{
		Texts: texts,
		Tasks: []string{taskFakeNews, taskSentiment},
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing classify request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("classify endpoint error (status %d): %s", resp.StatusCode, string(body))
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding classify response: %w", err)
	}

	if len(result.Predictions) != len(texts) {
		return nil, fmt.Errorf("prediction count mismatch: sent %d texts, got %d predictions", len(texts), len(result.Predictions))
	}

	return result.Predictions, nil
}

// LooksClassifiable applies the language heuristic: the text must be longer
// than ten characters and at least 70% ASCII-alphabetic.
func LooksClassifiable(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= minClassifiableLength {
		return false
	}

	asciiAlpha := 0
	for _, r := range text {
		if r < 128 && unicode.IsLetter(r) {
			asciiAlpha++
		}
	}

	return float64(asciiAlpha)/float64(len(text)) > asciiRatioThreshold
}
