package isbclient

import (
	"context"
	"encoding/json"
	"net/url"
)

const accountsEndpoint = "/accounts"

// FetchAccount returns the sandbox account with the given AWS account id, or nil.
func (c *Client) FetchAccount(ctx context.Context, awsAccountID, correlationID string) *AccountRecord {
	if isBlank(awsAccountID) {
		c.logger.Warn("Invalid awsAccountId for ISB API - skipping account enrichment", map[string]any{"correlationId": correlationID})
		return nil
	}
	return fetchRecord[AccountRecord](ctx, c, "GET /accounts", accountsEndpoint, awsAccountID, correlationID, map[string]any{
		"awsAccountId": awsAccountID,
	})
}

// RegisterAccount adds an AWS account to the sandbox pool.
func (c *Client) RegisterAccount(ctx context.Context, account RegisterAccountRequest, correlationID string) Result[AccountRecord] {
	if isBlank(account.AWSAccountID) {
		c.logger.Warn("Invalid awsAccountId for ISB account registration", map[string]any{"correlationId": correlationID})
		return failed[AccountRecord]("Invalid awsAccountId", 0)
	}

	resolved, ok := c.resolveConfig(correlationID)
	if !ok {
		return failed[AccountRecord](ErrNotConfigured.Error(), 0)
	}

	return write[AccountRecord](ctx, c, resolved, "POST /accounts", resolved.apiBaseURL+accountsEndpoint, account, correlationID)
}

// ListOption configures FetchAllAccounts.
type ListOption func(*listOptions)

type listOptions struct {
	maxPages int
}

// WithMaxPages caps the number of pages fetched. Values below 1 keep the
// default of DefaultMaxPages.
func WithMaxPages(n int) ListOption {
	return func(o *listOptions) {
		if n > 0 {
			o.maxPages = n
		}
	}
}

// Reasons a pagination run ended.
const (
	stopNone       = ""
	stopLastPage   = "last_page"
	stopMaxPages   = "max_pages"
	stopPageFailed = "page_failed"
)

// accountPager accumulates pages until one of the stop conditions holds.
// Results gathered before a failed page are kept.
type accountPager struct {
	maxPages int

	results []AccountRecord
	cursor  *string
	pages   int
	stop    string
}

func newAccountPager(maxPages int) *accountPager {
	return &accountPager{maxPages: maxPages, results: []AccountRecord{}}
}

// done reports whether no further page should be requested.
func (p *accountPager) done() bool {
	return p.stop != stopNone
}

// query returns the query string for the next page.
func (p *accountPager) query() string {
	if p.cursor == nil {
		return ""
	}
	return "?" + url.Values{"nextPageIdentifier": {*p.cursor}}.Encode()
}

// accept records a successfully fetched page.
func (p *accountPager) accept(page AccountsPage) {
	p.pages++
	p.results = append(p.results, page.Result...)

	switch {
	case page.NextPageIdentifier == nil || *page.NextPageIdentifier == "":
		p.cursor = nil
		p.stop = stopLastPage
	case p.pages >= p.maxPages:
		p.cursor = page.NextPageIdentifier
		p.stop = stopMaxPages
	default:
		p.cursor = page.NextPageIdentifier
	}
}

// fail records a page that could not be fetched.
func (p *accountPager) fail() {
	p.stop = stopPageFailed
}

// FetchAllAccounts walks GET /accounts page by page and returns every account
// it could collect. A failing page ends the walk with the accounts gathered
// so far; a failing first page yields an empty slice.
func (c *Client) FetchAllAccounts(ctx context.Context, correlationID string, opts ...ListOption) []AccountRecord {
	o := listOptions{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(&o)
	}

	resolved, ok := c.resolveConfig(correlationID)
	if !ok {
		return []AccountRecord{}
	}

	pager := newAccountPager(o.maxPages)
	for !pager.done() {
		target := resolved.apiBaseURL + accountsEndpoint + pager.query()
		data, ok := c.read(ctx, resolved, "GET /accounts (list)", target, correlationID, map[string]any{
			"page": pager.pages + 1,
		})
		if !ok {
			pager.fail()
			break
		}

		var page AccountsPage
		if err := json.Unmarshal(data, &page); err != nil {
			c.logger.Warn("ISB accounts page has unexpected shape", map[string]any{
				"correlationId": correlationID,
				"errorMessage":  err.Error(),
			})
			pager.fail()
			break
		}
		pager.accept(page)
	}

	fields := map[string]any{
		"correlationId": correlationID,
		"pages":         pager.pages,
		"accounts":      len(pager.results),
		"stopReason":    pager.stop,
	}
	if pager.stop == stopLastPage {
		c.logger.Debug("Fetched all accounts from ISB API", fields)
	} else {
		c.logger.Warn("Stopped fetching accounts from ISB API early", fields)
	}
	return pager.results
}
