package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Text string `json:"text" validate:"required"`
	Lang string `json:"lang" validate:"omitempty,bcp47_language_tag"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		errContains string
	}{
		{name: "valid", body: `{"text":"Haus","lang":"de"}`},
		{name: "syntax error", body: `{"text":"Haus",}`, errContains: "invalid character"},
		{name: "empty body", body: "", errContains: "EOF"},
		{name: "unknown field", body: `{"text":"Haus","extra":1}`, errContains: "unknown field"},
		{name: "trailing document", body: `{"text":"a"}{"text":"b"}`, errContains: "single JSON document"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))

			var got sampleRequest
			err := DecodeJSON(req, &got)
			if tc.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sampleRequest{Text: "Haus", Lang: "de"}, got)
		})
	}
}

type selfValidating struct {
	fail bool
}

func (s *selfValidating) Validate() error {
	if s.fail {
		return errors.New("self validation failed")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{}
		wantErr bool
	}{
		{name: "valid tags", req: &sampleRequest{Text: "Haus", Lang: "de-AT"}},
		{name: "missing required", req: &sampleRequest{Lang: "de"}, wantErr: true},
		{name: "bad language tag", req: &sampleRequest{Text: "Haus", Lang: "not a tag"}, wantErr: true},
		{name: "own validator passes", req: &selfValidating{}},
		{name: "own validator fails", req: &selfValidating{fail: true}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
