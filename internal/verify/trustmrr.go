package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultTrustMRRBaseURL = "https://trustmrr.com"

// MRRClient scrapes TrustMRR public profile pages for revenue figures and the
// linked Twitter account.
type MRRClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMRRClient builds a TrustMRR client. baseURL overrides the public site
// when non-empty.
func NewMRRClient(baseURL string, httpClient *http.Client) *MRRClient {
	if baseURL == "" {
		baseURL = defaultTrustMRRBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MRRClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

var (
	mrrPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d{2})?\s*(?:MRR|/mo|per month)`),
		regexp.MustCompile(`(?i)MRR[:\s]*\$[\d,]+(?:\.\d{2})?`),
		regexp.MustCompile(`(?i)Monthly[:\s]*\$[\d,]+(?:\.\d{2})?`),
	}
	mrrNumberRe = regexp.MustCompile(`\$?([\d,]+(?:\.\d{2})?)`)

	twitterLinkRe   = regexp.MustCompile(`(?:twitter\.com|x\.com)/@?(\w+)`)
	twitterHandleRe = regexp.MustCompile(`@(\w{1,15})`)
	verifiedBadgeRe = regexp.MustCompile(`(?i)class="[^"]*(?:verified|badge|stripe)[^"]*"`)
	h1Re            = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	tagRe           = regexp.MustCompile(`(?s)<[^>]*>`)
)

type mrrProfile struct {
	url            string
	companyName    string
	mrr            float64
	mrrDisplay     string
	twitterHandle  string
	stripeVerified bool
}

// profileURL normalizes a full URL or bare slug to a profile page URL.
func (c *MRRClient) profileURL(ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	slug := strings.Trim(ref, "/")
	slug = strings.TrimPrefix(slug, "trustmrr.com/startup/")
	slug = strings.TrimPrefix(slug, "trustmrr.com/")
	return c.baseURL + "/startup/" + slug
}

func (c *MRRClient) fetchProfile(ctx context.Context, ref string) (*mrrProfile, error) {
	pageURL := c.profileURL(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SharkTankSimulator/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trustmrr profile: status %d", resp.StatusCode)
	}
	page, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	html := string(page)
	text := tagRe.ReplaceAllString(html, " ")

	p := &mrrProfile{url: pageURL}
	if m := h1Re.FindStringSubmatch(html); m != nil {
		p.companyName = strings.TrimSpace(tagRe.ReplaceAllString(m[1], ""))
	}
	for _, re := range mrrPatterns {
		if m := re.FindString(text); m != "" {
			p.mrrDisplay = m
			if num := mrrNumberRe.FindStringSubmatch(m); num != nil {
				p.mrr, _ = strconv.ParseFloat(strings.ReplaceAll(num[1], ",", ""), 64)
			}
			break
		}
	}
	if m := twitterLinkRe.FindStringSubmatch(html); m != nil {
		p.twitterHandle = m[1]
	} else if m := twitterHandleRe.FindStringSubmatch(text); m != nil {
		p.twitterHandle = m[1]
	}
	p.stripeVerified = verifiedBadgeRe.MatchString(html)

	if p.mrr == 0 && p.companyName == "" {
		return nil, fmt.Errorf("profile page had no recognizable content")
	}
	return p, nil
}

// VerifyMRR checks whether the user's Twitter handle matches the one linked
// on a TrustMRR profile.
func (c *MRRClient) VerifyMRR(ctx context.Context, userHandle, profileRef string) *Result {
	profile, err := c.fetchProfile(ctx, profileRef)
	if err != nil {
		return &Result{
			Verified: false,
			Level:    LevelNotFound,
			Source:   "trustmrr",
			Message:  "TrustMRR profile not found or could not be parsed",
		}
	}

	res := &Result{
		Source: "trustmrr",
		Metrics: Metrics{
			MRR:          profile.mrr,
			PrimaryLabel: "MRR",
			PrimaryValue: profile.mrr,
		},
		Profile: &ProfileInfo{
			URL:         profile.url,
			CompanyName: profile.companyName,
			Twitter:     profile.twitterHandle,
		},
	}

	user := normalizeHandle(userHandle)
	linked := normalizeHandle(profile.twitterHandle)

	switch {
	case linked != "" && user == linked:
		res.Verified = true
		if profile.stripeVerified {
			res.Level = LevelVerified
			res.Message = fmt.Sprintf("Twitter @%s matches TrustMRR profile (Stripe verified)", user)
		} else {
			res.Level = LevelTwitterMatch
			res.Message = fmt.Sprintf("Twitter @%s matches TrustMRR profile", user)
		}
	case linked != "":
		res.Level = LevelClaimed
		res.Message = fmt.Sprintf("Your Twitter @%s does not match profile Twitter @%s", user, linked)
	default:
		res.Level = LevelClaimed
		res.Message = "Profile has no Twitter linked - ownership claimed"
	}
	return res
}
