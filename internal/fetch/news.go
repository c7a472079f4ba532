package fetch

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"time"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/errdefs"
)

const archNewsFeedURL = "https://archlinux.org/feeds/news/"

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// ArchNews fetches the Arch Linux news RSS feed and parses it into
// NewsItems. The whole feed is unmarshalled; the walk over its items stops
// at the first entry older than cutoff, since the feed is newest-first.
func (c *Client) ArchNews(ctx context.Context, cutoff time.Time) ([]appstate.NewsItem, error) {
	res, err := c.get(ctx, archNewsFeedURL, "arch-news-feed")
	if err != nil {
		return nil, err
	}
	var feed rssFeed
	if err := xml.Unmarshal(res.Body, &feed); err != nil {
		return nil, errdefs.ParseError("parsing Arch news feed: %v", err)
	}

	out := make([]appstate.NewsItem, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		published, perr := time.Parse(time.RFC1123Z, it.PubDate)
		if perr != nil {
			published, perr = time.Parse(time.RFC1123, it.PubDate)
		}
		if perr == nil && published.Before(cutoff) {
			break
		}
		out = append(out, appstate.NewsItem{
			Title:   it.Title,
			URL:     it.Link,
			Date:    published.Unix(),
			Content: stripTags(it.Description),
		})
	}
	return out, nil
}

// NewsArticle fetches the full body of a single news item by URL, for when
// the feed's summary description is truncated.
func (c *Client) NewsArticle(ctx context.Context, articleURL string) (string, error) {
	res, err := c.get(ctx, articleURL, "arch-news-article-"+articleURL)
	if err != nil {
		return "", err
	}
	return stripTags(string(res.Body)), nil
}

// SecurityAdvisory is one open issue from the Arch security tracker.
type SecurityAdvisory struct {
	Packages []string
	AVG      string
	Severity string
	Status   string
	Type     string
}

const securityIssuesURL = "https://security.archlinux.org/issues/all.json"

type securityIssue struct {
	Name     string   `json:"name"`
	Packages []string `json:"packages"`
	Severity string   `json:"severity"`
	Status   string   `json:"status"`
	Type     string   `json:"type"`
}

// SecurityAdvisories fetches the Arch security tracker's open-issues list.
// A malformed entry is omitted; the rest of the list continues.
func (c *Client) SecurityAdvisories(ctx context.Context) ([]SecurityAdvisory, error) {
	res, err := c.get(ctx, securityIssuesURL, "security-advisories")
	if err != nil {
		return nil, err
	}
	var issues []securityIssue
	if err := json.Unmarshal(res.Body, &issues); err != nil {
		return nil, errdefs.ParseError("parsing security issues: %v", err)
	}
	out := make([]SecurityAdvisory, 0, len(issues))
	for _, issue := range issues {
		if issue.Name == "" || len(issue.Packages) == 0 {
			continue
		}
		out = append(out, SecurityAdvisory{
			Packages: issue.Packages,
			AVG:      issue.Name,
			Severity: issue.Severity,
			Status:   issue.Status,
			Type:     issue.Type,
		})
	}
	return out, nil
}

// AdvisoriesByPackage indexes advisories by the package names they affect.
func AdvisoriesByPackage(advisories []SecurityAdvisory) map[string]SecurityAdvisory {
	out := map[string]SecurityAdvisory{}
	for _, adv := range advisories {
		for _, pkg := range adv.Packages {
			out[pkg] = adv
		}
	}
	return out
}
