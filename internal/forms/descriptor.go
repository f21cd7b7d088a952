package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/formbridge/backend/internal/model"
)

// ErrBadDescriptor is returned when an import body fails structural
// validation. No remote calls are made for such bodies.
var ErrBadDescriptor = errors.New("bad form descriptor")

// ParseDescriptor validates and decodes an import request body. The body
// must carry an info object and an items array (possibly empty); anything
// else fails with ErrBadDescriptor.
func ParseDescriptor(body []byte) (*model.FormDescriptor, error) {
	var envelope struct {
		Info  *model.FormInfo `json:"info"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDescriptor, err)
	}
	if envelope.Info == nil {
		return nil, fmt.Errorf("%w: missing info", ErrBadDescriptor)
	}

	raw := bytes.TrimSpace(envelope.Items)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: items must be an array", ErrBadDescriptor)
	}
	var items []model.FormItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDescriptor, err)
	}

	return &model.FormDescriptor{Info: envelope.Info, Items: items}, nil
}
