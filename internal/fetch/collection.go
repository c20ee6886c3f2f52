package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/texyhq/texy/internal/model"
)

// fetchCollection reads a static collection document from a URL or a path.
func (f *Fetcher) fetchCollection(ctx context.Context, src Source) ([]model.Article, error) {
	c, err := f.Collection(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	return c.Articles, nil
}

// Collection loads the full collection document at location, which is an
// http(s) URL, a file:// URL or a local path.
func (f *Fetcher) Collection(ctx context.Context, location string) (model.Collection, error) {
	var r io.ReadCloser
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		body, err := f.get(ctx, location, "application/json")
		if err != nil {
			return model.Collection{}, err
		}
		r = body
	default:
		file, err := os.Open(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return model.Collection{}, fmt.Errorf("open collection: %w", err)
		}
		r = file
	}
	defer r.Close()

	return DecodeCollection(r)
}

// DecodeCollection decodes a collection document. A bare JSON array of
// articles is accepted as a collection without metadata.
func DecodeCollection(r io.Reader) (model.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Collection{}, fmt.Errorf("read collection: %w", err)
	}

	var c model.Collection
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &c.Articles); err != nil {
			return model.Collection{}, fmt.Errorf("decode collection: %w", err)
		}
	} else if err := json.Unmarshal(data, &c); err != nil {
		return model.Collection{}, fmt.Errorf("decode collection: %w", err)
	}

	if c.Articles == nil {
		c.Articles = []model.Article{}
	}
	return c, nil
}
