// Package contract embeds the OpenAPI description of the governance endpoints
// the client consumes and validates outbound requests against it.
package contract

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var specYAML []byte

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("load contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate contract: %w", err)
	}
	return doc, nil
}

// Validator checks HTTP requests against the contract.
type Validator struct {
	doc    *openapi3.T
	router routers.Router
}

// NewValidator loads the contract and builds its router.
func NewValidator(ctx context.Context) (*Validator, error) {
	doc, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build contract router: %w", err)
	}
	return &Validator{doc: doc, router: router}, nil
}

// ValidateRequest reports whether r matches an operation of the contract,
// including its parameters and JSON body. The body stays readable.
func (v *Validator) ValidateRequest(r *http.Request) (operationID string, err error) {
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, err)
	}
	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options:    &openapi3filter.Options{MultiError: false},
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		return route.Operation.OperationID, err
	}
	return route.Operation.OperationID, nil
}

// OperationIDs lists every operation of the contract.
func (v *Validator) OperationIDs() []string {
	var ids []string
	for _, item := range v.doc.Paths.Map() {
		for _, op := range item.Operations() {
			ids = append(ids, op.OperationID)
		}
	}
	sort.Strings(ids)
	return ids
}
