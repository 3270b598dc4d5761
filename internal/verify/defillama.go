package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const defaultLlamaBaseURL = "https://api.llama.fi"

// searchLimit caps how many protocol matches a search returns.
const searchLimit = 20

// LlamaClient queries the DeFiLlama public API.
type LlamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewLlamaClient builds a DeFiLlama client. baseURL overrides the public API
// endpoint when non-empty.
func NewLlamaClient(baseURL string, httpClient *http.Client) *LlamaClient {
	if baseURL == "" {
		baseURL = defaultLlamaBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &LlamaClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// ProtocolMatch is one entry in a protocol search result.
type ProtocolMatch struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	TVL      float64 `json:"tvl"`
	Chain    string  `json:"chain,omitempty"`
	Category string  `json:"category,omitempty"`
	Twitter  string  `json:"twitter,omitempty"`
	Logo     string  `json:"logo,omitempty"`
}

type llamaProtocol struct {
	Slug     string  `json:"slug"`
	Name     string  `json:"name"`
	TVL      float64 `json:"tvl"`
	Chain    string  `json:"chain"`
	Category string  `json:"category"`
	Twitter  string  `json:"twitter"`
	Logo     string  `json:"logo"`
	URL      string  `json:"url"`
}

// SearchProtocols returns protocols whose name or slug contains the query,
// sorted by TVL descending.
func (c *LlamaClient) SearchProtocols(ctx context.Context, query string) ([]ProtocolMatch, error) {
	var protocols []llamaProtocol
	if err := c.getJSON(ctx, "/protocols", &protocols); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var matches []ProtocolMatch
	for _, p := range protocols {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Slug), q) {
			matches = append(matches, ProtocolMatch{
				ID:       p.Slug,
				Name:     p.Name,
				TVL:      p.TVL,
				Chain:    p.Chain,
				Category: p.Category,
				Twitter:  p.Twitter,
				Logo:     p.Logo,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].TVL > matches[j].TVL })
	if len(matches) > searchLimit {
		matches = matches[:searchLimit]
	}
	return matches, nil
}

type llamaProtocolDetail struct {
	Slug             string             `json:"slug"`
	Name             string             `json:"name"`
	Twitter          string             `json:"twitter"`
	URL              string             `json:"url"`
	Category         string             `json:"category"`
	Logo             string             `json:"logo"`
	CurrentChainTvls map[string]float64 `json:"currentChainTvls"`
	TVL              []struct {
		TotalLiquidityUSD float64 `json:"totalLiquidityUSD"`
	} `json:"tvl"`
}

type llamaFees struct {
	Total24h float64 `json:"total24h"`
	Total7d  float64 `json:"total7d"`
	Total30d float64 `json:"total30d"`
}

func (c *LlamaClient) protocolDetail(ctx context.Context, slug string) (*llamaProtocolDetail, error) {
	var detail llamaProtocolDetail
	if err := c.getJSON(ctx, "/protocol/"+url.PathEscape(slug), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// currentTVL sums per-chain TVL, falling back to the last historical entry.
func (d *llamaProtocolDetail) currentTVL() float64 {
	if len(d.CurrentChainTvls) > 0 {
		var sum float64
		for _, v := range d.CurrentChainTvls {
			sum += v
		}
		return sum
	}
	if n := len(d.TVL); n > 0 {
		return d.TVL[n-1].TotalLiquidityUSD
	}
	return 0
}

// VerifyProtocol checks whether the user's Twitter handle matches a
// protocol's official account and returns the protocol's headline metrics.
func (c *LlamaClient) VerifyProtocol(ctx context.Context, userHandle, slug string) *Result {
	detail, err := c.protocolDetail(ctx, slug)
	if err != nil {
		return &Result{
			Verified: false,
			Level:    LevelNotFound,
			Source:   "defillama",
			Message:  fmt.Sprintf("Protocol %q not found on DefiLlama", slug),
		}
	}

	// Fee data is optional; verification proceeds on TVL alone.
	var fees llamaFees
	if err := c.getJSON(ctx, "/summary/fees/"+url.PathEscape(slug), &fees); err != nil {
		fees = llamaFees{}
	}

	tvl := detail.currentTVL()
	metrics := Metrics{
		TVL:     tvl,
		Fees30d: fees.Total30d,
		Fees7d:  fees.Total7d,
		Fees24h: fees.Total24h,
	}
	// Revenue beats TVL as the headline figure.
	switch {
	case fees.Total30d > 0:
		metrics.PrimaryLabel, metrics.PrimaryValue = "30d Fees", fees.Total30d
	case fees.Total7d > 0:
		metrics.PrimaryLabel, metrics.PrimaryValue = "7d Fees", fees.Total7d
	case tvl > 0:
		metrics.PrimaryLabel, metrics.PrimaryValue = "TVL", tvl
	default:
		metrics.PrimaryLabel = "No Data"
	}

	res := &Result{
		Source:  "defillama",
		Metrics: metrics,
		Protocol: &ProtocolInfo{
			ID:       detail.Slug,
			Name:     detail.Name,
			Twitter:  detail.Twitter,
			Category: detail.Category,
			URL:      detail.URL,
			Logo:     detail.Logo,
		},
	}

	if metrics.PrimaryValue == 0 {
		res.Level = LevelNoMetrics
		res.Message = fmt.Sprintf("Protocol %q has no fees or TVL data on DefiLlama. Cannot verify claims.", detail.Name)
		return res
	}

	user := normalizeHandle(userHandle)
	official := normalizeHandle(detail.Twitter)
	if official != "" && user == official {
		res.Verified = true
		res.Level = LevelVerified
		res.Message = fmt.Sprintf("Verified! Twitter @%s matches protocol official account", user)
		return res
	}

	res.Level = LevelClaimed
	if official != "" {
		res.Message = fmt.Sprintf("Claimed: @%s not verified as @%s team member", user, official)
	} else {
		res.Message = "Claimed: Protocol has no Twitter on DefiLlama"
	}
	return res
}

func (c *LlamaClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("defillama %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
