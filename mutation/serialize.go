package mutation

import (
	"encoding/json"
)

// MarshalBatch serialises a Batch to JSON.
func MarshalBatch(b *Batch) ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBatch deserialises a Batch from JSON.
func UnmarshalBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// MarshalBatches serialises a list of batches as a JSON array. A nil list
// encodes as an empty array so clients can always iterate.
func MarshalBatches(bs []Batch) ([]byte, error) {
	if bs == nil {
		bs = []Batch{}
	}
	return json.Marshal(bs)
}
