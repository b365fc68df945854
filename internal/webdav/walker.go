package webdav

import (
	"context"
	"strings"

	"github.com/clem/episcan/internal/util"
)

// WalkResult holds the outcome of a breadth-first traversal.
type WalkResult struct {
	Resources   []Resource
	FetchErrors int
}

// Walk traverses the trees under roots breadth-first. Each directory is
// listed at depth 1; the self-referential entry is discarded, newly
// discovered directories are enqueued once, and all other nodes accumulate
// into the result. A directory whose listing fails contributes nothing and
// the walk continues.
func (c *Client) Walk(ctx context.Context, roots []string) (*WalkResult, error) {
	result := &WalkResult{}
	queue := append([]string(nil), roots...)
	visited := make(map[string]bool)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		current := queue[0]
		queue = queue[1:]

		entries, err := c.ListDirectory(ctx, current, 1)
		if err != nil {
			util.WarnLog("PROPFIND failed for %s: %v", current, err)
			result.FetchErrors++
			continue
		}

		for _, entry := range entries {
			if samePath(entry.Path, current) {
				continue
			}
			result.Resources = append(result.Resources, entry)
			if entry.IsDir && !visited[entry.Path] {
				visited[entry.Path] = true
				queue = append(queue, entry.Path)
			}
		}
	}

	return result, nil
}

// samePath compares two remote paths ignoring a trailing slash.
func samePath(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
