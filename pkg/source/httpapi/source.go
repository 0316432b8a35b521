package httpapi

import (
	"context"
	"fmt"
	"sync"

	"emojiharvest/pkg/collector"
)

// Source walks a paginated emoji listing. Each advance follows the
// current page's next cursor; the listing is exhausted on the page that
// has none. A page is fetched at most once per position.
type Source struct {
	client *Client

	mu     sync.Mutex
	mode   string
	cursor string
	page   *Page
}

// NewSource wraps a client
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Locate fetches the first page of the default mode
func (s *Source) Locate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.current(ctx)
	return err
}

func (s *Source) SelectMode(ctx context.Context, mode collector.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != string(mode) {
		s.mode = string(mode)
		s.cursor = ""
		s.page = nil
	}
	return nil
}

func (s *Source) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor != "" {
		s.cursor = ""
		s.page = nil
	}
	return nil
}

func (s *Source) Enumerate(ctx context.Context) ([]collector.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]collector.Item, 0, len(page.Items))
	for _, e := range page.Items {
		items = append(items, collector.Item{Key: e.Name, Value: e.URL})
	}
	return items, nil
}

func (s *Source) Exhausted(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.current(ctx)
	if err != nil {
		return false, err
	}
	return page.NextCursor == "", nil
}

func (s *Source) Advance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.current(ctx)
	if err != nil {
		return err
	}
	if page.NextCursor == "" {
		return fmt.Errorf("no page after cursor %q", s.cursor)
	}
	s.cursor = page.NextCursor
	s.page = nil
	return nil
}

// current must be called with mu held
func (s *Source) current(ctx context.Context) (*Page, error) {
	if s.page != nil {
		return s.page, nil
	}
	page, err := s.client.FetchPage(ctx, s.mode, s.cursor)
	if err != nil {
		return nil, err
	}
	s.page = page
	return page, nil
}
