package crawler

// CategorySelectors groups the CSS selectors probed for one kind of
// interactive control. Scan order is category order, then selector
// order, then DOM order.
type CategorySelectors struct {
	Category  string
	Selectors []string
}

// DefaultSelectors covers the interactive UI that commonly hides
// content on dynamic sites.
var DefaultSelectors = []CategorySelectors{
	{
		Category: "buttons",
		Selectors: []string{
			"button",
			"[role=\"button\"]",
			"input[type=\"button\"]",
			"input[type=\"submit\"]",
		},
	},
	{
		Category: "expandables",
		Selectors: []string{
			"[aria-expanded]",
			"details summary",
			".accordion",
			".collapsible",
			".expandable",
		},
	},
	{
		Category: "tabs",
		Selectors: []string{
			"[role=\"tab\"]",
			".tab",
			".nav-tabs a",
		},
	},
	{
		Category: "navigation",
		Selectors: []string{
			"[role=\"menuitem\"]",
			".menu-item",
			".dropdown-toggle",
		},
	},
	{
		Category: "modals",
		Selectors: []string{
			"[data-toggle=\"modal\"]",
			"[data-modal]",
			".modal-trigger",
		},
	},
	{
		Category: "treeNodes",
		Selectors: []string{
			"[role=\"treeitem\"]",
			".tree-node",
			".toc-item",
		},
	},
}
