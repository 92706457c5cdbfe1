package config

import "strings"

// PlacementMode 描述中间件条目进入栈的方式。
type PlacementMode string

const (
	PlacementAppend  PlacementMode = "append"
	PlacementBefore  PlacementMode = "before"
	PlacementAfter   PlacementMode = "after"
	PlacementReplace PlacementMode = "replace"
)

// Placement 返回条目的放置方式与目标名称（假定 Validate 已经通过）。
func (m MiddlewareConfig) Placement() (PlacementMode, string) {
	switch {
	case strings.TrimSpace(m.Before) != "":
		return PlacementBefore, strings.TrimSpace(m.Before)
	case strings.TrimSpace(m.After) != "":
		return PlacementAfter, strings.TrimSpace(m.After)
	case strings.TrimSpace(m.Replace) != "":
		return PlacementReplace, strings.TrimSpace(m.Replace)
	default:
		return PlacementAppend, ""
	}
}

func (m MiddlewareConfig) placementCount() int {
	count := 0
	for _, target := range []string{m.Before, m.After, m.Replace} {
		if strings.TrimSpace(target) != "" {
			count++
		}
	}
	return count
}
