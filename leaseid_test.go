package isbclient

import (
	"encoding/base64"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestConstructLeaseID(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"plain email", testUserEmail},
		{"plus tag", "user+tag@sub.domain.gov.uk"},
		{"pipe character", "user|test@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ConstructLeaseID(tt.email, testUUID)

			decoded, err := base64.StdEncoding.DecodeString(id)
			assert.NoError(t, err)
			assert.JSONEq(t, `{"userEmail":"`+tt.email+`","uuid":"`+testUUID+`"}`, string(decoded))
		})
	}
}

func TestConstructLeaseID_ExactBytes(t *testing.T) {
	id := ConstructLeaseID(testUserEmail, testUUID)
	decoded, err := base64.StdEncoding.DecodeString(id)
	assert.NoError(t, err)
	assert.Equal(t, `{"userEmail":"user@example.gov.uk","uuid":"550e8400-e29b-41d4-a716-446655440000"}`, string(decoded))
}

func TestConstructLeaseID_Deterministic(t *testing.T) {
	assert.Equal(t, ConstructLeaseID(testUserEmail, testUUID), ConstructLeaseID(testUserEmail, testUUID))
	assert.NotEqual(t, ConstructLeaseID(testUserEmail, testUUID), ConstructLeaseID("other@example.gov.uk", testUUID))
}

func TestConstructLeaseID_KeepsHTMLCharactersLiteral(t *testing.T) {
	id := ConstructLeaseID("a&b<c>@example.com", testUUID)
	decoded, err := base64.StdEncoding.DecodeString(id)
	assert.NoError(t, err)
	assert.Equal(t, `{"userEmail":"a&b<c>@example.com","uuid":"`+testUUID+`"}`, string(decoded))
}

func TestConstructLeaseID_LineSeparatorsStayRaw(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"line separator", "a\u2028b@x", `{"userEmail":"a` + "\u2028" + `b@x","uuid":"u"}`},
		{"paragraph separator", "a\u2029b@x", `{"userEmail":"a` + "\u2029" + `b@x","uuid":"u"}`},
		{"escaped backslash before literal text", `a\u2028@x`, `{"userEmail":"a\\u2028@x","uuid":"u"}`},
		{"quote and control characters", "a\"b\n@x", `{"userEmail":"a\"b\n@x","uuid":"u"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := base64.StdEncoding.DecodeString(ConstructLeaseID(tt.email, "u"))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, string(decoded))

			key, ok := ParseLeaseID(ConstructLeaseID(tt.email, "u"))
			assert.True(t, ok)
			assert.Equal(t, tt.email, key.UserEmail)
		})
	}
}

func TestParseLeaseID_RoundTrip(t *testing.T) {
	pairs := []LeaseKey{
		{UserEmail: testUserEmail, UUID: testUUID},
		{UserEmail: "user+tag@sub.domain.gov.uk", UUID: "1"},
		{UserEmail: "ünïcødé@example.com", UUID: "abc-def"},
	}

	for _, want := range pairs {
		got, ok := ParseLeaseID(ConstructLeaseID(want.UserEmail, want.UUID))
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestParseLeaseID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"not base64", "not-valid-base64!!!"},
		{"not json", base64.StdEncoding.EncodeToString([]byte("not json"))},
		{"missing userEmail", base64.StdEncoding.EncodeToString([]byte(`{"uuid":"test"}`))},
		{"missing uuid", base64.StdEncoding.EncodeToString([]byte(`{"userEmail":"test@example.com"}`))},
		{"wrong field types", base64.StdEncoding.EncodeToString([]byte(`{"userEmail":1,"uuid":2}`))},
		{"case-variant keys", base64.StdEncoding.EncodeToString([]byte(`{"USEREMAIL":"a@b.c","UUID":"x"}`))},
		{"lower-case keys", base64.StdEncoding.EncodeToString([]byte(`{"useremail":"a@b.c","uuid":"x"}`))},
		{"empty values", base64.StdEncoding.EncodeToString([]byte(`{"userEmail":"","uuid":""}`))},
		{"null values", base64.StdEncoding.EncodeToString([]byte(`{"userEmail":null,"uuid":"x"}`))},
		{"json array", base64.StdEncoding.EncodeToString([]byte(`["a@b.c","x"]`))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseLeaseID(tt.id)
			assert.False(t, ok)
		})
	}
}

func TestLeaseIDPrefix(t *testing.T) {
	assert.Equal(t, "eyJ1c2Vy...", leaseIDPrefix("eyJ1c2VyRW1haWwiOiJ1"))
	assert.Equal(t, "short...", leaseIDPrefix("short"))
	assert.Equal(t, "ünïcødé@...", leaseIDPrefix("ünïcødé@example.com"))
	assert.True(t, utf8.ValidString(leaseIDPrefix("ééééééééé")))
}
