package cart

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/niksmo/storefront/internal/core/domain"
)

var errEmptyData = errors.New("empty cart data")

// Encode serializes the ordered line list.
func Encode(lines []domain.CartLine) ([]byte, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return json.Marshal(lines)
}

func Decode(data []byte) ([]domain.CartLine, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyData
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
