package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSet_Clean(t *testing.T) {
	f := FilterSet{
		Search:           []string{"  orders ", "", "   "},
		Types:            []string{"table"},
		ApprovalStatuses: []ApprovalStatus{" Approved ", ""},
	}
	got := f.Clean()

	assert.Equal(t, []string{"orders"}, got.Search)
	assert.Equal(t, []string{"table"}, got.Types)
	assert.Nil(t, got.Catalogs)
	assert.Equal(t, []ApprovalStatus{ApprovalApproved}, got.ApprovalStatuses)
	assert.Nil(t, got.ApplicationNames)
}

func TestFilterSet_EqualAndEmpty(t *testing.T) {
	assert.True(t, FilterSet{}.IsEmpty())
	assert.True(t, FilterSet{}.Equal(FilterSet{}))
	assert.True(t, FilterSet{Types: []string{"a", "b"}}.Equal(FilterSet{Types: []string{"a", "b"}}))
	assert.False(t, FilterSet{Types: []string{"a", "b"}}.Equal(FilterSet{Types: []string{"b", "a"}}))
	assert.False(t, FilterSet{Catalogs: []string{"x"}}.IsEmpty())
}

func TestFilterSet_Validate(t *testing.T) {
	require.NoError(t, FilterSet{ApprovalStatuses: []ApprovalStatus{ApprovalPending, ApprovalRejected}}.Validate())

	err := FilterSet{ApprovalStatuses: []ApprovalStatus{"archived"}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archived")
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampPageSize(0))
	assert.Equal(t, DefaultPageSize, ClampPageSize(-3))
	assert.Equal(t, 10, ClampPageSize(10))
	assert.Equal(t, MaxPageSize, ClampPageSize(MaxPageSize+1))
}

func TestPageRequest_ServerPage(t *testing.T) {
	assert.Equal(t, 1, PageRequest{Index: 0}.ServerPage())
	assert.Equal(t, 3, PageRequest{Index: 2}.ServerPage())
	assert.Equal(t, 1, PageRequest{Index: -1}.ServerPage())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 25))
	assert.Equal(t, 1, TotalPages(25, 25))
	assert.Equal(t, 2, TotalPages(26, 25))
	assert.Equal(t, 0, TotalPages(10, 0))
}
