package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/attask-archive/internal/attask"
)

// Defaults and limits.
const (
	DefaultLimit     = 100
	MaxLimit         = 2000
	DefaultOffset    = 0
	DefaultSortOrder = SortOrderAsc
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"

	// SortSuffix turns a field name into its sort parameter.
	SortSuffix = "_Sort"
)

// Validation errors.
var (
	ErrInvalidLimit         = fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	ErrInvalidOffset        = errors.New("offset must be non-negative")
	ErrInvalidPage          = errors.New("page must be >= 1")
	ErrMixedPaginationModes = errors.New("cannot use both offset-based (--offset) and page-based (--page) pagination")
	ErrPageSizeWithoutPage  = errors.New("--page-size requires --page to be set")
	ErrPageWithoutPageSize  = errors.New("--page requires --page-size to be set")
	ErrInvalidSortFormat    = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'entryDate:desc')")
	ErrInvalidSortOrder     = errors.New("sort order must be 'asc' or 'desc'")
	ErrEmptySortField       = errors.New("sort field cannot be empty")
)

// Params holds the paging flags of one command.
type Params struct {
	// Limit is the maximum number of results (offset-based mode).
	Limit int
	// Offset is the number of results to skip (offset-based mode).
	Offset int
	// Page is the 1-based page number (page-based mode); 0 disables it.
	Page int
	// PageSize is the number of results per page (page-based mode).
	PageSize int
	// Sort is "field" or "field:order".
	Sort string
}

// New returns Params with defaults.
func New() *Params {
	return &Params{Limit: DefaultLimit, Offset: DefaultOffset}
}

// AddFlags registers the paging flags on cmd, bound to p.
func (p *Params) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Limit, "limit", p.Limit, "maximum number of records to return")
	cmd.Flags().IntVar(&p.Offset, "offset", p.Offset, "number of records to skip")
	cmd.Flags().IntVar(&p.Page, "page", p.Page, "page number (1-based, requires --page-size)")
	cmd.Flags().IntVar(&p.PageSize, "page-size", p.PageSize, "records per page (requires --page)")
	cmd.Flags().StringVar(&p.Sort, "sort", p.Sort, "sort by field, optionally with order (e.g. entryDate:desc)")
}

// Validate checks bounds and that the two modes are not mixed.
func (p Params) Validate() error {
	if p.Offset < 0 {
		return ErrInvalidOffset
	}
	if p.Page < 0 {
		return ErrInvalidPage
	}
	if p.Page > 0 && p.Offset > 0 {
		return ErrMixedPaginationModes
	}
	if p.Page == 0 && p.PageSize > 0 {
		return ErrPageSizeWithoutPage
	}
	if p.Page > 0 && p.PageSize == 0 {
		return ErrPageWithoutPageSize
	}

	_, limit := p.OffsetLimit()
	if limit < 1 || limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if _, _, err := ParseSort(p.Sort); err != nil {
		return err
	}
	return nil
}

// IsPageBased reports whether page-based mode is active.
func (p Params) IsPageBased() bool {
	return p.Page > 0
}

// OffsetLimit returns the effective offset and limit for either mode.
//
//nolint:nonamedreturns // Named returns document the pair.
func (p Params) OffsetLimit() (offset, limit int) {
	if p.IsPageBased() {
		return (p.Page - 1) * p.PageSize, p.PageSize
	}
	return p.Offset, p.Limit
}

// Apply adds $$FIRST, $$LIMIT and the sort parameter to params.
func (p Params) Apply(params attask.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	offset, limit := p.OffsetLimit()
	params[attask.ParamLimit] = limit
	if offset > 0 {
		params[attask.ParamFirst] = offset
	}

	field, order, _ := ParseSort(p.Sort)
	if field != "" {
		params[field+SortSuffix] = order
	}
	return nil
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses "field" or "field:order". An empty string means no sort.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if sortStr == "" {
		return "", "", nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}
