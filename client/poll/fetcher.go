package poll

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/notification"
)

// LatestResult is the poll endpoint's payload.
type LatestResult struct {
	Success         bool                      `json:"success"`
	HasNotification bool                      `json:"has_notification"`
	Notification    notification.Notification `json:"notification"`
	UnreadCount     int                       `json:"unread_count"`
}

// Fetcher is the controller's view of the notification API.
type Fetcher interface {
	Latest(ctx context.Context) (LatestResult, error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context) error
}

type apiFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Fetcher = (*apiFetcher)(nil)

func NewAPIFetcher(baseURL, token string) *apiFetcher {
	return &apiFetcher{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *apiFetcher) Latest(ctx context.Context) (LatestResult, error) {
	var res LatestResult
	if err := f.do(ctx, http.MethodGet, "/v1/notifications/latest", nil, &res); err != nil {
		return LatestResult{}, err
	}
	return res, nil
}

func (f *apiFetcher) MarkRead(ctx context.Context, id int) error {
	body := map[string]interface{}{"action": "mark_as_read", "id": fmt.Sprint(id)}
	return f.do(ctx, http.MethodPost, "/v1/notifications/actions", body, nil)
}

func (f *apiFetcher) MarkAllRead(ctx context.Context) error {
	body := map[string]interface{}{"action": "mark_all_read"}
	return f.do(ctx, http.MethodPost, "/v1/notifications/actions", body, nil)
}

func (f *apiFetcher) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buff bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buff).Encode(body); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+path, &buff)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetching "+path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("fetching %s: status %d", path, resp.StatusCode)
	}
	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decoding "+path)
		}
	}
	return nil
}
