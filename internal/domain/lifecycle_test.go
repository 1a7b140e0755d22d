package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		state   LifecycleState
		action  Action
		allowed bool
	}{
		{StatePending, ActionApprove, true},
		{StatePending, ActionReject, true},
		{StatePending, ActionPublish, false},
		{StateApproved, ActionApprove, false},
		{StateApproved, ActionReject, false},
		{StateApproved, ActionPublish, true},
		{StateRejected, ActionApprove, false},
		{StateRejected, ActionPublish, false},
		{StateRejected, ActionReject, false},
		{StatePublished, ActionPublish, false},
		{StatePublished, ActionApprove, false},
		{StatePending, ActionUpdateMetadata, true},
		{StateRejected, ActionUpdateMetadata, true},
		{StatePublished, ActionUpdateMetadata, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state)+"/"+string(tt.action), func(t *testing.T) {
			err := CheckTransition(tt.state, tt.action)
			if tt.allowed {
				require.NoError(t, err)
				return
			}
			var conflict *ConflictError
			require.True(t, errors.As(err, &conflict), "expected ConflictError, got %v", err)
		})
	}
}

func TestAsset_State(t *testing.T) {
	tests := []struct {
		name string
		op   OperationalMetadata
		want LifecycleState
	}{
		{"absent status is pending", OperationalMetadata{}, StatePending},
		{"pending", OperationalMetadata{ApprovalStatus: ApprovalPending}, StatePending},
		{"approved", OperationalMetadata{ApprovalStatus: ApprovalApproved}, StateApproved},
		{"published", OperationalMetadata{ApprovalStatus: ApprovalApproved, PublishStatus: PublishPublished}, StatePublished},
		{"rejected", OperationalMetadata{ApprovalStatus: ApprovalRejected}, StateRejected},
		{"publish flag without approval stays pending", OperationalMetadata{PublishStatus: PublishPublished}, StatePending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Asset{OperationalMetadata: tt.op}
			assert.Equal(t, tt.want, a.State())
		})
	}
}

func TestAsset_CloneIsDeep(t *testing.T) {
	masking := "hash"
	a := &Asset{
		ID:                "a1",
		TechnicalMetadata: TechnicalMetadata{Properties: map[string]string{"k": "v"}},
		BusinessMetadata:  BusinessMetadata{Tags: []string{"t1"}, CustomColumns: map[string]string{"c": "1"}},
		Columns: []Column{
			{Name: "email", PIIDetected: true, PIITypes: []string{"EMAIL"}, MaskingLogicAnalytical: &masking},
		},
	}

	c := a.Clone()
	require.Equal(t, a, c)

	c.TechnicalMetadata.Properties["k"] = "changed"
	c.BusinessMetadata.Tags[0] = "changed"
	c.BusinessMetadata.CustomColumns["c"] = "changed"
	c.Columns[0].PIITypes[0] = "PHONE"
	*c.Columns[0].MaskingLogicAnalytical = "redact"

	assert.Equal(t, "v", a.TechnicalMetadata.Properties["k"])
	assert.Equal(t, "t1", a.BusinessMetadata.Tags[0])
	assert.Equal(t, "1", a.BusinessMetadata.CustomColumns["c"])
	assert.Equal(t, "EMAIL", a.Columns[0].PIITypes[0])
	assert.Equal(t, "hash", *a.Columns[0].MaskingLogicAnalytical)
}

func TestColumn_Normalize(t *testing.T) {
	masking := "hash"
	c := Column{Name: "x", PIIDetected: false, PIITypes: []string{"EMAIL"}, MaskingLogicAnalytical: &masking, MaskingLogicOperational: &masking}
	c.Normalize()
	assert.Nil(t, c.PIITypes)
	assert.Nil(t, c.MaskingLogicAnalytical)
	assert.Nil(t, c.MaskingLogicOperational)

	pii := Column{Name: "y", PIIDetected: true, PIITypes: []string{"EMAIL"}}
	pii.Normalize()
	assert.Equal(t, []string{"EMAIL"}, pii.PIITypes)
}
