// Package issues aggregates failing audits across pages into a
// ranked issue list. Pure computation over already-fetched reports.
package issues

import (
	"sort"

	"github.com/foghornhq/foghorn/internal/model"
)

// List scans every page's stored report and groups failing audits by
// audit id. An audit fails when its score is present and below 1;
// unscored and perfect audits are excluded. When category is
// non-empty only that category's block is considered, otherwise all
// four. Callers validate the category before calling.
//
// Within a group, pages are ordered worst score first. Groups are
// ordered by descending page count; ties keep group-creation order,
// which follows page order and then audit order within a block.
func List(pages []*model.Page, category model.Category) []*model.Issue {
	groups := make(map[string]*model.Issue)
	ordered := make([]*model.Issue, 0)

	categories := model.Categories()
	if category != "" {
		categories = []model.Category{category}
	}

	for _, page := range pages {
		if page.AuditReport == nil {
			continue
		}
		for _, cat := range categories {
			block := page.AuditReport.Category(cat)
			for _, audit := range block.Audits {
				if audit.Score == nil || *audit.Score >= 1 {
					continue
				}
				group := groups[audit.ID]
				if group == nil {
					group = &model.Issue{
						AuditID:  audit.ID,
						Title:    audit.Title,
						Category: cat,
						Pages:    []model.IssuePage{},
					}
					groups[audit.ID] = group
					ordered = append(ordered, group)
				}
				group.Pages = append(group.Pages, model.IssuePage{
					PageID:       page.ID,
					URL:          page.URL,
					Path:         page.Path,
					Score:        *audit.Score,
					DisplayValue: audit.DisplayValue,
				})
			}
		}
	}

	for _, group := range ordered {
		pages := group.Pages
		sort.SliceStable(pages, func(i, j int) bool {
			return pages[i].Score < pages[j].Score
		})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Pages) > len(ordered[j].Pages)
	})
	return ordered
}
