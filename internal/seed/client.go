// v0
// internal/seed/client.go
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rotctools/attendance/internal/attendance"
	"rotctools/attendance/internal/ingest"
)

// Client fetches an attendance snapshot over HTTP from the sync service so
// a fresh deployment has data before the first Kafka message lands.
type Client struct {
	h    *http.Client
	base string
	unit string
	log  *slog.Logger
}

// item is one snapshot row. Field aliases match the vocabularies the sync
// service has emitted.
type item struct {
	PersonID string `json:"personId"`
	Name     string `json:"name"`
	Cohort   string `json:"cohort"`
	MS       string `json:"ms"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	Mark     string `json:"mark"`
}

// NewClient creates a snapshot client with sane timeouts.
func NewClient(baseURL, unit string, log *slog.Logger) *Client {
	return &Client{
		h:    &http.Client{Timeout: 20 * time.Second},
		base: strings.TrimRight(baseURL, "/"),
		unit: unit,
		log:  log,
	}
}

// FetchMarks retrieves the full mark snapshot, following page/size
// pagination when the service supports it.
func (c *Client) FetchMarks(ctx context.Context) ([]ingest.Mark, error) {
	size := 1000
	page := 0
	var all []ingest.Mark

	for {
		params := url.Values{}
		if c.unit != "" {
			params.Set("unit", c.unit)
		}
		params.Set("page", fmt.Sprintf("%d", page))
		params.Set("size", fmt.Sprintf("%d", size))

		endpoint := fmt.Sprintf("%s/marks?%s", c.base, params.Encode())
		c.log.Info("seed_fetch", slog.String("endpoint", endpoint))

		items, err := c.fetchPage(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		for _, it := range items {
			mark, ok := c.toMark(it)
			if !ok {
				continue
			}
			all = append(all, mark)
		}

		if len(items) < size {
			break
		}
		page++
		// safety cap
		if page > 1000 {
			break
		}
	}

	return all, nil
}

// fetchPage performs one GET and decodes either an {items:[]} / {data:[]}
// envelope or a bare array.
func (c *Client) fetchPage(ctx context.Context, endpoint string) ([]item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("seed http %d: %s", resp.StatusCode, string(b))
	}

	var items []item
	dec := json.NewDecoder(resp.Body)
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t {
	case json.Delim('['):
		var it item
		for dec.More() {
			if err := dec.Decode(&it); err != nil {
				return nil, err
			}
			items = append(items, it)
		}
		_, _ = dec.Token()
	case json.Delim('{'):
		raw := make(map[string]json.RawMessage)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, isStr := keyTok.(string)
			if !isStr {
				return nil, fmt.Errorf("unexpected JSON from seed endpoint")
			}
			var v json.RawMessage
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			raw[key] = v
		}
		_, _ = dec.Token()
		payload, ok := raw["items"]
		if !ok {
			payload, ok = raw["data"]
		}
		if ok {
			if err := json.Unmarshal(payload, &items); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unexpected JSON from seed endpoint")
	}

	return items, nil
}

// toMark converts one snapshot row, logging and skipping rows the stream
// consumer would also drop.
func (c *Client) toMark(it item) (ingest.Mark, bool) {
	personID := strings.TrimSpace(it.PersonID)
	if personID == "" {
		personID = strings.TrimSpace(it.Name)
	}
	if personID == "" {
		c.log.Warn("seed_skip_row", slog.String("reason", "missing person"))
		return ingest.Mark{}, false
	}

	cohort := strings.TrimSpace(it.Cohort)
	if cohort == "" {
		cohort = strings.TrimSpace(it.MS)
	}

	day, err := attendance.ParseDay(it.Date)
	if err != nil {
		c.log.Warn("seed_skip_row", slog.String("reason", "bad date"), slog.String("date", it.Date))
		return ingest.Mark{}, false
	}

	rawStatus := it.Status
	if strings.TrimSpace(rawStatus) == "" {
		rawStatus = it.Mark
	}
	status, known := attendance.ParseStatus(rawStatus)
	if !known {
		c.log.Warn("seed_skip_row", slog.String("reason", "bad status"), slog.String("status", rawStatus))
		return ingest.Mark{}, false
	}

	return ingest.Mark{PersonID: personID, Cohort: cohort, Day: day, Status: status}, true
}

// Load fetches the snapshot and feeds it into the store, returning the
// number of marks applied.
func (c *Client) Load(ctx context.Context, store *ingest.RecordStore) (int, error) {
	marks, err := c.FetchMarks(ctx)
	if err != nil {
		return 0, err
	}
	for _, m := range marks {
		store.Put(m)
	}
	return len(marks), nil
}
