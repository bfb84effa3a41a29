// Package exercisedb is the gateway to the upstream exercise-lookup API
// (ExerciseDB on RapidAPI). Upstream failures degrade to an empty result:
// callers cannot tell "no results" from "upstream unavailable".
package exercisedb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"levelup/internal/domain"
)

const requestTimeout = 10 * time.Second

// Client queries the upstream exercise database.
type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
	logger     logrus.FieldLogger
}

func NewClient(host, apiKey string, logger logrus.FieldLogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    "https://" + host,
		host:       host,
		apiKey:     apiKey,
		logger:     logger,
	}
}

type exercisePayload struct {
	Name      string `json:"name"`
	BodyPart  string `json:"bodyPart"`
	Equipment string `json:"equipment"`
	Target    string `json:"target"`
	GifURL    string `json:"gifUrl"`
}

// Search looks up exercises by name. A non-success upstream status or a
// broken response yields an empty slice, never an error surfaced to the user.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Exercise, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/exercises/name/%s", c.baseURL, url.PathEscape(strings.ToLower(query)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("exercise search upstream unreachable")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithField("status", resp.StatusCode).Warn("exercise search upstream returned non-success status")
		return nil, nil
	}

	var payload []exercisePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.WithError(err).Warn("exercise search upstream returned malformed body")
		return nil, nil
	}

	results := make([]domain.Exercise, 0, len(payload))
	for _, p := range payload {
		results = append(results, domain.Exercise{
			Name:      p.Name,
			BodyPart:  p.BodyPart,
			Equipment: p.Equipment,
			Target:    p.Target,
			GifURL:    normalizeImageLink(p.GifURL),
		})
	}
	return results, nil
}

// normalizeImageLink keeps only absolute http(s) URLs; everything else is dropped.
func normalizeImageLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return link
}
