package engine

import "fmt"

// DefaultMaxDepth is the default limit on pipeline nesting.
const DefaultMaxDepth = 64

// depthQuota bounds how deep one top-level completion may recurse.
//
// Each Complete call owns one quota. Fallback attempts re-enter at the same
// depth as the attempt they replace, so they never consume extra budget.
type depthQuota struct {
	max     int
	deepest int
}

func newDepthQuota(max int) *depthQuota {
	return &depthQuota{max: max}
}

// check validates depth against the limit and records the deepest level seen.
func (q *depthQuota) check(process string, depth int) error {
	if depth > q.max {
		return &RuntimeError{
			Code:    ErrCodeDepthExceeded,
			Message: fmt.Sprintf("pipeline nesting exceeded max depth (%d > %d)", depth, q.max),
			Process: process,
			Details: map[string]string{
				"depth":     fmt.Sprintf("%d", depth),
				"max_depth": fmt.Sprintf("%d", q.max),
			},
		}
	}
	if depth > q.deepest {
		q.deepest = depth
	}
	return nil
}
