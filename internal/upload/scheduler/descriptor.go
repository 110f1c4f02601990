package scheduler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"mediaup/internal/upload/domain"
	perrors "mediaup/pkg/errors"
)

var requiredFields = []string{"filename", "originalname", "mimetype", "binarydata"}

// ParseItems decodes the items sequence. Only a payload that is not a JSON
// array is an error; a bad element becomes an item carrying DescriptorErr.
func ParseItems(itemsJSON []byte) ([]domain.Item, error) {
	trimmed := bytes.TrimSpace(itemsJSON)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, perrors.ErrItemsNotSequence
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrItemsNotSequence, err)
	}

	items := make([]domain.Item, len(raw))
	for i, r := range raw {
		items[i] = parseItem(r)
	}
	return items, nil
}

func parseItem(raw json.RawMessage) domain.Item {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return malformed(domain.Item{}, errors.New("item is not an object"))
	}

	values := make(map[string]string, len(requiredFields)+1)
	for _, name := range requiredFields {
		v, present, err := stringField(fields, name)
		if err != nil {
			return malformed(domain.Item{}, err)
		}
		if !present {
			return malformed(domain.Item{}, fmt.Errorf("missing field %q", name))
		}
		values[name] = v
	}
	thumbnail, _, err := stringField(fields, "thumbnail")
	if err != nil {
		return malformed(domain.Item{}, err)
	}

	item := domain.Item{
		BlobName:          values["filename"],
		OriginalName:      values["originalname"],
		Mime:              values["mimetype"],
		ThumbnailBlobName: thumbnail,
	}

	if item.Kind() == domain.KindVideo && item.ThumbnailBlobName == "" {
		return malformed(item, errors.New("thumbnail is required for video items"))
	}
	if item.BlobName == "" {
		return malformed(item, errors.New("filename is empty"))
	}

	payload, err := decodePayload(values["binarydata"])
	if err != nil {
		return malformed(item, fmt.Errorf("decode binarydata: %w", err))
	}
	item.Payload = payload
	return item
}

// stringField reads an optional string; null counts as absent.
func stringField(fields map[string]json.RawMessage, name string) (string, bool, error) {
	raw, ok := fields[name]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, fmt.Errorf("field %q must be a string", name)
	}
	return s, true, nil
}

// decodePayload accepts standard base64 with embedded line breaks and with or
// without padding.
func decodePayload(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if strings.HasSuffix(cleaned, "=") || len(cleaned)%4 == 0 {
		return base64.StdEncoding.DecodeString(cleaned)
	}
	return base64.RawStdEncoding.DecodeString(cleaned)
}

func malformed(item domain.Item, err error) domain.Item {
	item.DescriptorErr = errors.Join(domain.ErrMalformedItem, err)
	return item
}
