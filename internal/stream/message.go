package stream

import (
	"fmt"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/redis/go-redis/v9"
)

// StreamMessage is a stream entry with its string fields
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// NewStreamMessage keeps the string-valued fields of a raw entry
func NewStreamMessage(msg *redis.XMessage) *StreamMessage {
	fields := make(map[string]string, len(msg.Values))
	for key, val := range msg.Values {
		if value, ok := val.(string); ok {
			fields[key] = value
		}
	}
	return &StreamMessage{ID: msg.ID, Fields: fields}
}

// Values converts the fields back into XAdd values
func (m *StreamMessage) Values() map[string]interface{} {
	values := make(map[string]interface{}, len(m.Fields))
	for k, v := range m.Fields {
		values[k] = v
	}
	return values
}

// ParseRequest validates a message and builds the analysis request.
// A missing request_id falls back to the entry id.
func ParseRequest(msg *StreamMessage) (*models.AnalysisRequest, error) {
	req := &models.AnalysisRequest{
		RequestID:    msg.Fields["request_id"],
		File1Name:    msg.Fields["file1_name"],
		File1Content: msg.Fields["file1_content"],
		File2Name:    msg.Fields["file2_name"],
		File2Content: msg.Fields["file2_content"],
	}

	if req.File1Name == "" {
		return nil, fmt.Errorf("file1_name is required")
	}
	if req.File2Name == "" {
		return nil, fmt.Errorf("file2_name is required")
	}
	// empty content is a valid file; an absent field is not
	if _, ok := msg.Fields["file1_content"]; !ok {
		return nil, fmt.Errorf("file1_content is required")
	}
	if _, ok := msg.Fields["file2_content"]; !ok {
		return nil, fmt.Errorf("file2_content is required")
	}
	if req.RequestID == "" {
		req.RequestID = msg.ID
	}

	return req, nil
}
