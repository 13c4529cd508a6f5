package templates

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	g "github.com/maragudk/gomponents"
)

// RenderMarkdown turns post content into HTML. Raw HTML in the source is
// dropped and links with unsafe schemes such as javascript: are not linked.
func RenderMarkdown(src string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(src))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank | html.SkipHTML |
		html.Safelink | html.NofollowLinks | html.NoreferrerLinks
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return string(markdown.Render(doc, renderer))
}

func markdownNode(src string) g.Node {
	return g.Raw(RenderMarkdown(src))
}
