package graphx

import (
	"fmt"
	"net/http"

	"github.com/Abraxas-365/wanderlust/pkg/errx"
)

// NodeError reports which node failed and at which step
type NodeError struct {
	Node string
	Step int
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s failed at step %d: %v", e.Node, e.Step, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("GRAPH")

var (
	CodeInvalidGraph   = ErrRegistry.Register("INVALID_GRAPH", errx.TypeValidation, http.StatusInternalServerError, "Graph definition is invalid")
	CodeInvalidRoute   = ErrRegistry.Register("INVALID_ROUTE", errx.TypeInternal, http.StatusInternalServerError, "Router returned an undeclared target")
	CodeRecursionLimit = ErrRegistry.Register("RECURSION_LIMIT", errx.TypeInternal, http.StatusInternalServerError, "Graph run exceeded its step limit")
)

func ErrInvalidGraph() *errx.Error {
	return ErrRegistry.New(CodeInvalidGraph)
}

func ErrInvalidRoute() *errx.Error {
	return ErrRegistry.New(CodeInvalidRoute)
}

func ErrRecursionLimit() *errx.Error {
	return ErrRegistry.New(CodeRecursionLimit)
}
