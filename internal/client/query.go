package client

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"assetflow/internal/domain"
)

// addFormParam encodes value as an exploded form-style query parameter, the
// same encoding generated OpenAPI clients use for array parameters.
func addFormParam(q url.Values, name string, value interface{}) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("encode query parameter %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return fmt.Errorf("encode query parameter %s: %w", name, err)
	}
	for k, values := range parsed {
		for _, v := range values {
			q.Add(k, v)
		}
	}
	return nil
}

// assetListQuery builds the query string of GET /assets.
func assetListQuery(req domain.PageRequest) (url.Values, error) {
	q := url.Values{}
	f := req.Filters.Clean()

	statuses := make([]string, 0, len(f.ApprovalStatuses))
	for _, s := range f.ApprovalStatuses {
		statuses = append(statuses, string(s))
	}

	params := []struct {
		name   string
		values []string
	}{
		{"search", f.Search},
		{"type", f.Types},
		{"catalog", f.Catalogs},
		{"approval_status", statuses},
		{"application_name", f.ApplicationNames},
	}
	for _, p := range params {
		if len(p.values) == 0 {
			continue
		}
		if err := addFormParam(q, p.name, p.values); err != nil {
			return nil, err
		}
	}

	q.Set("page", strconv.Itoa(req.ServerPage()))
	q.Set("per_page", strconv.Itoa(domain.ClampPageSize(req.PageSize)))
	return q, nil
}

func pageQuery(page, perPage int) url.Values {
	q := url.Values{}
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(domain.ClampPageSize(perPage)))
	return q
}
