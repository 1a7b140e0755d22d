package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RejectRequest
		wantErr bool
		errMsg  string
	}{
		{name: "coded reason", req: RejectRequest{ReasonCode: "001"}},
		{name: "other with text", req: RejectRequest{ReasonCode: "other", OtherText: "legacy system"}},
		{name: "missing reason", req: RejectRequest{}, wantErr: true, errMsg: "rejection reason is required"},
		{name: "unknown code", req: RejectRequest{ReasonCode: "999"}, wantErr: true, errMsg: "unknown rejection reason"},
		{name: "other without text", req: RejectRequest{ReasonCode: "other", OtherText: "   "}, wantErr: true, errMsg: "reason text is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRejectRequest_TagAndText(t *testing.T) {
	coded := RejectRequest{ReasonCode: "003"}
	assert.Equal(t, "Duplicate Asset", coded.ReasonText())
	assert.Equal(t, "Rejected: Duplicate Asset", coded.Tag())

	other := RejectRequest{ReasonCode: "other", OtherText: "  contains   stale data from 2019 "}
	assert.Equal(t, "contains   stale data from 2019", other.ReasonText())
	assert.Equal(t, "Rejected: contains stale", other.Tag())

	oneWord := RejectRequest{ReasonCode: "other", OtherText: "obsolete"}
	assert.Equal(t, "Rejected: obsolete", oneWord.Tag())
}

func TestAppendTag(t *testing.T) {
	tags := []string{"pii"}
	out := AppendTag(tags, "Rejected: Other")
	assert.Equal(t, []string{"pii", "Rejected: Other"}, out)
	assert.Equal(t, []string{"pii"}, tags)

	assert.Equal(t, []string{"pii"}, AppendTag([]string{"pii"}, "pii"))
	assert.Equal(t, []string{"x"}, AppendTag(nil, "x"))
}
