package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevinaaaquil/bookshelf/models"
)

const defaultGoogleBooksBase = "https://www.googleapis.com/books/v1/volumes"

// maxSearchResults is the page size requested from the volumes API.
const maxSearchResults = 20

// googleBooksVolumesResp is the response from GET /volumes?q=...
type googleBooksVolumesResp struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title       string   `json:"title"`
			Subtitle    string   `json:"subtitle"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
			InfoLink    string   `json:"infoLink"`
			ImageLinks  struct {
				SmallThumbnail string `json:"smallThumbnail"`
				Thumbnail      string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// BookSearch looks books up in the Google Books catalog. Results are shaped like
// saved-book entries so the client can pass one straight to saveBook.
type BookSearch struct {
	baseURL string
	client  *http.Client
}

func NewBookSearch(baseURL string) *BookSearch {
	if baseURL == "" {
		baseURL = defaultGoogleBooksBase
	}
	// Short timeout so a slow catalog does not hold the request open.
	return &BookSearch{baseURL: baseURL, client: &http.Client{Timeout: 15 * time.Second}}
}

func (s *BookSearch) Search(ctx context.Context, query string) ([]models.SavedBook, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Message: "search query is required", Fields: map[string]string{"query": "required"}}
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("maxResults", fmt.Sprint(maxSearchResults))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data googleBooksVolumesResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	books := make([]models.SavedBook, 0, len(data.Items))
	for _, item := range data.Items {
		vi := item.VolumeInfo
		if item.ID == "" || vi.Title == "" {
			continue
		}
		title := vi.Title
		if vi.Subtitle != "" {
			title = title + ": " + vi.Subtitle
		}
		authors := vi.Authors
		if authors == nil {
			authors = []string{"No author to display"}
		}
		image := vi.ImageLinks.Thumbnail
		if image == "" {
			image = vi.ImageLinks.SmallThumbnail
		}
		books = append(books, models.SavedBook{
			BookID:      item.ID,
			Title:       title,
			Authors:     authors,
			Description: strings.TrimSpace(vi.Description),
			Image:       httpsURL(image),
			Link:        vi.InfoLink,
		})
	}
	return books, nil
}

// httpsURL upgrades the http thumbnail links the API returns so browsers do not
// block them as mixed content.
func httpsURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
