package amqp

import (
	"encoding/json"
	"time"
)

// RoutingDatasetLoaded is the routing key of DatasetLoadedMessage.
const RoutingDatasetLoaded = "dataset.loaded"

// DatasetLoadedMessage announces a dataset that finished loading. It
// carries counts only; records never leave the process.
type DatasetLoadedMessage struct {
	SessionID string    `json:"session_id"`
	Files     []string  `json:"files"`
	Rows      int       `json:"rows"`
	Expenses  int       `json:"expenses"`
	Refunds   int       `json:"refunds"`
	Cancelled int       `json:"cancelled"`
	Total     string    `json:"total"`
	Periods   []string  `json:"periods"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *DatasetLoadedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DatasetLoadedMessageFromJSON(data []byte) (*DatasetLoadedMessage, error) {
	var msg DatasetLoadedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
