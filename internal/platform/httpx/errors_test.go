package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRespondDenyStatusByReason pins the reason-to-status mapping: conflicts
// are 409, visibility denials hide the resource as 404, everything else 403.
func TestRespondDenyStatusByReason(t *testing.T) {
	cases := []struct {
		reason string
		status int
	}{
		{"NOT_OWNER", http.StatusForbidden},
		{"NOT_ADMIN", http.StatusForbidden},
		{"NOT_STUDENT_LEADER", http.StatusForbidden},
		{"ALREADY_EXISTS", http.StatusConflict},
		{"INVALID_STATE", http.StatusConflict},
		{"NOT_VISIBLE", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondDeny(rec, tc.reason)
		assert.Equal(t, tc.status, rec.Code, tc.reason)
	}
}
