package renderer

import (
	treeline "github.com/zack-schrag/treeline-money-sub002"
)

// backfillView adds the run mode to the stats the templates print.
type backfillView struct {
	treeline.BackfillStats
	DryRun bool
}

// RenderBackfill renders a backfill run to markdown.
func RenderBackfill(stats treeline.BackfillStats, dryRun bool) string {
	partials := map[string]string{
		"backfill_warnings": "backfill_warnings.md",
	}
	return renderTemplate("backfill", "backfill.md", partials, backfillView{BackfillStats: stats, DryRun: dryRun})
}
