package isbclient

import (
	"context"
)

const (
	leasesEndpoint    = "/leases"
	templatesEndpoint = "/leaseTemplates"
)

// FetchLease returns the lease with the given ISB lease identifier, or nil if
// it cannot be fetched for any reason.
func (c *Client) FetchLease(ctx context.Context, leaseID, correlationID string) *LeaseRecord {
	if isBlank(leaseID) {
		c.logger.Warn("Invalid leaseId for ISB API - skipping enrichment", map[string]any{"correlationId": correlationID})
		return nil
	}
	return fetchRecord[LeaseRecord](ctx, c, "GET /leases", leasesEndpoint, leaseID, correlationID, map[string]any{
		"leaseIdPrefix": leaseIDPrefix(leaseID),
	})
}

// FetchLeaseByKey builds the lease identifier from userEmail and uuid and
// fetches it.
func (c *Client) FetchLeaseByKey(ctx context.Context, userEmail, uuid, correlationID string) *LeaseRecord {
	if isBlank(userEmail) {
		c.logger.Warn("Invalid userEmail for ISB API - skipping enrichment", map[string]any{"correlationId": correlationID})
		return nil
	}
	if isBlank(uuid) {
		c.logger.Warn("Invalid uuid for ISB API - skipping enrichment", map[string]any{"correlationId": correlationID})
		return nil
	}
	return c.FetchLease(ctx, ConstructLeaseID(userEmail, uuid), correlationID)
}

// FetchTemplate returns the lease template with the given name, or nil.
func (c *Client) FetchTemplate(ctx context.Context, templateName, correlationID string) *TemplateRecord {
	if isBlank(templateName) {
		c.logger.Warn("Invalid templateName for ISB API - skipping template enrichment", map[string]any{"correlationId": correlationID})
		return nil
	}
	return fetchRecord[TemplateRecord](ctx, c, "GET /leaseTemplates", templatesEndpoint, templateName, correlationID, map[string]any{
		"templateName": templateName,
	})
}

// ReviewLease approves or denies a pending lease.
func (c *Client) ReviewLease(ctx context.Context, leaseID string, review ReviewLeaseRequest, correlationID string) Result[ReviewLeaseResponse] {
	if isBlank(leaseID) {
		c.logger.Warn("Invalid leaseId for ISB lease review", map[string]any{"correlationId": correlationID})
		return failed[ReviewLeaseResponse]("Invalid leaseId", 0)
	}
	if review.Action != ReviewApprove && review.Action != ReviewDeny {
		c.logger.Warn("Invalid review action for ISB lease review", map[string]any{
			"correlationId": correlationID,
			"action":        review.Action,
		})
		return failed[ReviewLeaseResponse]("Invalid review action", 0)
	}

	resolved, ok := c.resolveConfig(correlationID)
	if !ok {
		return failed[ReviewLeaseResponse](ErrNotConfigured.Error(), 0)
	}

	target := resolved.apiBaseURL + leasesEndpoint + "/" + escapePathParam(leaseID) + "/review"
	return write[ReviewLeaseResponse](ctx, c, resolved, "POST /leases/review", target, review, correlationID)
}
