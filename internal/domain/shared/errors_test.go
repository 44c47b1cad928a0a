package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	custom := ErrNotFound.WithMessage("product not found")

	assert.True(t, errors.Is(custom, ErrNotFound))
	assert.False(t, errors.Is(custom, ErrForbidden))
	assert.Equal(t, "product not found", custom.Error())
}

func TestDomainError_WrapAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("saving order: %w", ErrInvalidState.Wrap(cause))

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.True(t, errors.Is(err, cause))

	de, ok := AsDomainError(err)
	assert.True(t, ok)
	assert.Equal(t, "INVALID_STATE", de.Code)
	assert.Contains(t, de.Error(), "boom")
}

func TestNewPaginated(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
	}{
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"empty", 0, 20, 0},
		{"zero page size", 3, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginated([]int{}, tt.total, 1, tt.pageSize)
			assert.Equal(t, tt.wantPages, p.TotalPages)
		})
	}
}

func TestFilter_OffsetAndLimit(t *testing.T) {
	f := Filter{Page: 3, PageSize: 10}
	assert.Equal(t, 20, f.Offset())
	assert.Equal(t, 10, f.Limit())

	assert.Equal(t, 0, Filter{}.Offset())
	assert.Equal(t, 50, Filter{}.Limit())
	assert.Equal(t, 500, Filter{PageSize: 10000}.Limit())
}
