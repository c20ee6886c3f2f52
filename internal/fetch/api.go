package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/texyhq/texy/internal/model"
)

// apiPageSize is the page size requested from the articles API (its maximum).
const apiPageSize = 100

// apiPage is the /articles response envelope.
type apiPage struct {
	Articles   []model.Article `json:"articles"`
	Pagination struct {
		Total   int  `json:"total"`
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
}

// fetchAPI walks GET <base>/articles until has_more is false.
func (f *Fetcher) fetchAPI(ctx context.Context, src Source) ([]model.Article, error) {
	base := strings.TrimSuffix(src.URL, "/")
	if !strings.HasSuffix(base, "/articles") {
		base += "/articles"
	}

	var all []model.Article
	offset := 0
	for page := 0; page < f.maxPages; page++ {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(apiPageSize))
		q.Set("offset", strconv.Itoa(offset))
		q.Set("sort", "published")
		q.Set("order", "desc")

		body, err := f.get(ctx, base+"?"+q.Encode(), "application/json")
		if err != nil {
			return nil, err
		}

		var p apiPage
		err = json.NewDecoder(body).Decode(&p)
		body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode articles page: %w", err)
		}

		all = append(all, p.Articles...)
		if !p.Pagination.HasMore || len(p.Articles) == 0 {
			break
		}
		offset += len(p.Articles)
	}
	return all, nil
}
