package web

import (
	"fmt"

	vm "github.com/ericfisherdev/pmhub/internal/adapter/driving/web/viewmodel"
)

// page is a marketing page backed by an embedded Markdown file.
type page struct {
	Path  string
	Title string
	File  string
}

// sitePages lists the marketing pages in navigation order.
var sitePages = []page{
	{Path: "/", Title: "Home", File: "content/home.md"},
	{Path: "/pricing", Title: "Pricing", File: "content/pricing.md"},
	{Path: "/about", Title: "About", File: "content/about.md"},
	{Path: "/blog", Title: "Blog", File: "content/blog.md"},
	{Path: "/resources", Title: "Resources", File: "content/resources.md"},
	{Path: "/contact", Title: "Contact", File: "content/contact.md"},
}

// renderPages converts every site page to sanitized HTML once at startup.
func renderPages() (map[string]vm.PageViewModel, error) {
	rendered := make(map[string]vm.PageViewModel, len(sitePages))
	for _, p := range sitePages {
		src, err := contentFS.ReadFile(p.File)
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", p.File, err)
		}
		rendered[p.Path] = vm.PageViewModel{
			LayoutViewModel: layout(p.Title, p.Path),
			Body:            renderMarkdownHTML(string(src)),
		}
	}
	return rendered, nil
}

// layout builds the shared layout data with activePath highlighted.
func layout(title, activePath string) vm.LayoutViewModel {
	nav := make([]vm.NavLink, 0, len(sitePages)+1)
	for _, p := range sitePages {
		nav = append(nav, vm.NavLink{Title: p.Title, Path: p.Path, Active: p.Path == activePath})
	}
	nav = append(nav, vm.NavLink{Title: "Settings", Path: settingsPath, Active: activePath == settingsPath})
	return vm.LayoutViewModel{Title: title, Nav: nav}
}
