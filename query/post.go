package query

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"github.com/richardwooding/spurs-feed-mcp/model"
	"github.com/richardwooding/spurs-feed-mcp/version"
)

// PostScraperConfig configures a PostScraper. Zero values get defaults.
type PostScraperConfig struct {
	UserAgent string
	Timeout   time.Duration
	Transport http.RoundTripper
	// Selector picks the elements whose text makes up the post body.
	Selector string
}

// PostScraper pulls the paragraph text out of a post page with colly.
type PostScraper struct {
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	selector  string
}

// NewPostScraper creates a PostScraper.
func NewPostScraper(config PostScraperConfig) *PostScraper {
	if config.UserAgent == "" {
		config.UserAgent = version.UserAgent()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Transport == nil {
		config.Transport = http.DefaultTransport
	}
	if config.Selector == "" {
		config.Selector = "p"
	}
	return &PostScraper{
		userAgent: config.UserAgent,
		timeout:   config.Timeout,
		transport: config.Transport,
		selector:  config.Selector,
	}
}

// contextTransport binds every request colly makes to the caller's context.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// Scrape visits link and returns its paragraphs joined by blank lines.
// Redirects off the link's host are not followed.
func (s *PostScraper) Scrape(ctx context.Context, link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return "", model.CreateValidationError(model.ErrInvalidURL, link)
	}

	domains := []string{u.Hostname()}
	if u.Host != u.Hostname() {
		domains = append(domains, u.Host)
	}

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowedDomains(domains...),
	)
	c.SetRequestTimeout(s.timeout)
	c.WithTransport(contextTransport{ctx: ctx, base: s.transport})

	var paragraphs []string
	c.OnHTML(s.selector, func(e *colly.HTMLElement) {
		if text := paragraphText(e.DOM); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	var visitErr error
	var status int
	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(link); err != nil && visitErr == nil {
		visitErr = err
	}

	if visitErr != nil {
		if status >= 300 {
			resp := &http.Response{StatusCode: status, Status: strconv.Itoa(status) + " " + http.StatusText(status), Header: http.Header{}}
			return "", model.CreateHTTPError(resp, link).WithOperation("scrape_post")
		}
		return "", model.CreateNetworkError(visitErr, link).WithOperation("scrape_post")
	}

	return strings.Join(paragraphs, "\n\n"), nil
}

func paragraphText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
