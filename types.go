package isbclient

import "encoding/json"

// ServiceIdentity is the calling service's principal, embedded in every token
// as the "user" claim.
type ServiceIdentity struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// LeaseRecord represents a lease returned by the ISB leases API.
type LeaseRecord struct {
	UserEmail                 string   `json:"userEmail"`
	UUID                      string   `json:"uuid"`
	Status                    string   `json:"status,omitempty"`
	TemplateName              string   `json:"templateName,omitempty"`
	AccountID                 string   `json:"accountId,omitempty"`
	AWSAccountID              string   `json:"awsAccountId,omitempty"`
	ExpirationDate            string   `json:"expirationDate,omitempty"`
	MaxSpend                  *float64 `json:"maxSpend,omitempty"`
	TotalCostAccrued          *float64 `json:"totalCostAccrued,omitempty"`
	LastModified              string   `json:"lastModified,omitempty"`
	OriginalLeaseTemplateName string   `json:"originalLeaseTemplateName,omitempty"`
	StartDate                 string   `json:"startDate,omitempty"`
	EndDate                   string   `json:"endDate,omitempty"`
	LeaseDurationInHours      *float64 `json:"leaseDurationInHours,omitempty"`
}

// AccountRecord represents a sandbox account returned by the ISB accounts API.
type AccountRecord struct {
	AWSAccountID     string `json:"awsAccountId"`
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	Status           string `json:"status,omitempty"`
	AdminRoleArn     string `json:"adminRoleArn,omitempty"`
	PrincipalRoleArn string `json:"principalRoleArn,omitempty"`
}

// TemplateRecord represents a lease template returned by the ISB templates API.
type TemplateRecord struct {
	UUID                 string   `json:"uuid"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	LeaseDurationInHours *float64 `json:"leaseDurationInHours,omitempty"`
	MaxSpend             *float64 `json:"maxSpend,omitempty"`
}

// JSend status values
const (
	JSendSuccess = "success"
	JSendFail    = "fail"
	JSendError   = "error"
)

// JSendResponse is the envelope wrapping every ISB API response body.
// Data is kept raw so an absent field can be told apart from an empty one.
type JSendResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// HasData reports whether the envelope carried a data field.
// A JSON null counts as absent.
func (r JSendResponse) HasData() bool {
	return len(r.Data) > 0 && string(r.Data) != "null"
}

// Review actions accepted by POST /leases/{id}/review
const (
	ReviewApprove = "Approve"
	ReviewDeny    = "Deny"
)

// ReviewLeaseRequest is the body of POST /leases/{id}/review.
type ReviewLeaseRequest struct {
	Action        string `json:"action"`
	ApproverEmail string `json:"approverEmail,omitempty"`
}

// ReviewLeaseResponse is the data returned by POST /leases/{id}/review.
type ReviewLeaseResponse struct {
	LeaseID string `json:"leaseId"`
	Status  string `json:"status"`
}

// AccountsPage is one page of GET /accounts.
type AccountsPage struct {
	Result             []AccountRecord `json:"result"`
	NextPageIdentifier *string         `json:"nextPageIdentifier"`
}

// RegisterAccountRequest is the body of POST /accounts.
type RegisterAccountRequest struct {
	AWSAccountID string `json:"awsAccountId"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Result is the outcome of a write operation.
// StatusCode 0 means no HTTP response was obtained.
type Result[T any] struct {
	Success    bool
	Data       T
	Error      string
	StatusCode int
}

func succeeded[T any](data T, statusCode int) Result[T] {
	return Result[T]{Success: true, Data: data, StatusCode: statusCode}
}

func failed[T any](msg string, statusCode int) Result[T] {
	return Result[T]{Error: msg, StatusCode: statusCode}
}
