package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NewsClient fetches recent crypto headlines to enrich forecaster prompts.
// It never returns an error; missing keys and fetch failures produce a
// sentinel string the prompt carries instead of headlines.
type NewsClient struct {
	host   string
	apiKey string
	client *http.Client
}

// NewNewsClient creates a NewsClient for a CryptoPanic-compatible API. The
// host carries the full API prefix, e.g. "https://cryptopanic.com/api/v1".
func NewNewsClient(host, apiKey string) *NewsClient {
	return &NewsClient{
		host:   strings.TrimRight(host, "/"),
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type newsResponse struct {
	Results []struct {
		Title string `json:"title"`
	} `json:"results"`
}

// LatestHeadlines returns up to five recent headlines for the currency,
// joined with " | ".
func (n *NewsClient) LatestHeadlines(ctx context.Context, currency string) string {
	if n.apiKey == "" {
		return "News API key missing; using technical-only signal."
	}

	q := url.Values{}
	q.Set("auth_token", n.apiKey)
	q.Set("currencies", currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/posts/?%s", n.host, q.Encode()), nil)
	if err != nil {
		return "Unable to fetch news; continuing with trading signal only."
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "Unable to fetch news; continuing with trading signal only."
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "Unable to fetch news; continuing with trading signal only."
	}

	var out newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "Unable to fetch news; continuing with trading signal only."
	}

	titles := make([]string, 0, 5)
	for _, r := range out.Results {
		if len(titles) == 5 {
			break
		}
		titles = append(titles, r.Title)
	}
	return strings.Join(titles, " | ")
}
