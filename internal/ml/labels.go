package ml

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"

	"smartkitchen/pkg/errors"
)

// LoadLabels reads class names for an image model. Accepts a plain JSON array
// or a Hugging Face style object with an "id2label" map.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrModelUnavailable, "labels file not found at %s", path)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ParseLabels(data)
}

// ParseLabels decodes a label list
func ParseLabels(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) == 0 {
			return nil, errors.Wrap(errors.ErrSchema, "label list is empty")
		}
		return list, nil
	}

	var cfg struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrSchema, "parse labels: %v", err)
	}
	if len(cfg.ID2Label) == 0 {
		return nil, errors.Wrap(errors.ErrSchema, "labels have no id2label entries")
	}

	byID := make(map[int]string, len(cfg.ID2Label))
	ids := make([]int, 0, len(cfg.ID2Label))
	for k, name := range cfg.ID2Label {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrSchema, "label id %q is not an integer", k)
		}
		byID[id] = name
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if ids[0] < 0 {
		return nil, errors.Wrapf(errors.ErrSchema, "negative label id %d", ids[0])
	}

	labels := make([]string, ids[len(ids)-1]+1)
	for _, id := range ids {
		labels[id] = byID[id]
	}
	return labels, nil
}
