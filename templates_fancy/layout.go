package templates

import (
	"net/url"

	"github.com/manoela-fs/blog/constants"
	"github.com/manoela-fs/blog/locales"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type Flash struct {
	Kind    string
	Message string
}

type LayoutProps struct {
	Title           string
	Locale          string
	Path            string
	CurrentUserID   string
	CurrentUserName string
	Flashes         []Flash
}

func (p LayoutProps) t(key string, args ...any) string {
	return T(p.Locale, key, args...)
}

func (p LayoutProps) signedIn() bool {
	return p.CurrentUserID != ""
}

func NavbarComponent(props LayoutProps) g.Node {
	return Nav(Class("nav"),
		Div(Class("nav-left"),
			A(Class("brand"), Href("/"), g.Text(constants.APP_NAME)),
			A(Href("/post/feed"), g.Text(props.t("nav.feed"))),
			g.If(props.signedIn(), A(Href("/post/create"), g.Text(props.t("nav.new_post")))),
		),
		Div(Class("nav-right"),
			LanguageSwitcherComponent(props),
			g.If(!props.signedIn(),
				g.Group([]g.Node{
					A(Href("/login"), g.Text(props.t("nav.login"))),
					A(Href("/register"), g.Text(props.t("nav.register"))),
				}),
			),
			g.If(props.signedIn(),
				g.Group([]g.Node{
					A(Href("/usuario/"+props.CurrentUserID), g.Text(props.t("nav.profile"))),
					A(Href("/usuario/atividade"), g.Text(props.t("nav.activity"))),
					Span(Class("text-grey"), g.Text(props.t("nav.logged_in_as", props.CurrentUserName))),
					FormEl(Method("post"), Action("/logout"), Class("inline"),
						Button(Type("submit"), Class("button clear"), g.Text(props.t("nav.logout"))),
					),
				}),
			),
		),
	)
}

// LanguageSwitcherComponent links the current page in every supported locale.
func LanguageSwitcherComponent(props LayoutProps) g.Node {
	links := make([]g.Node, 0, len(locales.Supported))
	for _, locale := range locales.Supported {
		links = append(links, A(
			Href(withLocale(props.Path, locale)),
			g.If(locale == props.Locale, Class("active")),
			g.Attr("hreflang", locale),
			g.Text(props.t("locale."+locale)),
		))
	}
	return Span(Class("lang-switcher"), Title(props.t("nav.language")), g.Group(links))
}

func withLocale(path, locale string) string {
	u, err := url.Parse(path)
	if err != nil || path == "" {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set(constants.LOCALE_QUERY_PARAM, locale)
	u.RawQuery = q.Encode()
	return u.String()
}

func FlashesComponent(flashes []Flash) g.Node {
	nodes := make([]g.Node, 0, len(flashes))
	for _, f := range flashes {
		class := "bd-success text-success"
		if f.Kind == constants.FLASH_ERROR {
			class = "bd-error text-error"
		}
		nodes = append(nodes, Div(Class("card flash "+class), g.Attr("role", "alert"), g.Text(f.Message)))
	}
	return g.Group(nodes)
}

func FooterComponent(props LayoutProps) g.Node {
	return Footer(Class("footer"),
		P(Class("text-grey"), Small(g.Textf("%s · %s", constants.APP_NAME, props.t("locale."+props.Locale)))),
	)
}

const styles = `
.nav { margin-bottom: 1.5em; }
.nav a, .nav span { margin-right: 0.8em; }
.nav form.inline { display: inline; }
.lang-switcher a.active { font-weight: bold; text-decoration: underline; }
.flash { margin-bottom: 1em; }
.post-card { margin-bottom: 1.5em; }
.post-card img, .post-full img { max-width: 100%; border-radius: 4px; }
.post-meta { color: #777; font-size: 0.9em; }
.untranslated { font-style: italic; color: #a66; }
.field-error { color: #d43939; font-size: 0.9em; }
.avatar { width: 48px; height: 48px; border-radius: 50%; object-fit: cover; vertical-align: middle; }
.like-button.liked { background: #d43939; color: #fff; }
`

// likeScript posts to the like endpoint and updates the button in place.
const likeScript = `
document.addEventListener('click', function (ev) {
	var btn = ev.target.closest('.like-button');
	if (!btn) { return; }
	ev.preventDefault();
	fetch('/post/' + btn.dataset.postId + '/curtir', {method: 'POST', credentials: 'same-origin'})
		.then(function (res) {
			if (res.status === 401) { window.location = '/login'; return null; }
			return res.json();
		})
		.then(function (data) {
			if (!data) { return; }
			btn.classList.toggle('liked', data.curtido);
			btn.querySelector('.like-count').textContent = data.totalCurtidas;
		});
});
`

func Layout(props LayoutProps, children ...g.Node) g.Node {
	return Doctype(
		HTML(
			Lang(props.Locale),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				Link(Rel("icon"), Type("image/svg+xml"), Href("data:image/svg+xml,<svg xmlns=%22http://www.w3.org/2000/svg%22 viewBox=%220 0 100 100%22><text y=%22.9em%22 font-size=%2290%22>🌐</text></svg>")),

				Link(Rel("stylesheet"), Href("https://unpkg.com/chota@0.9.2/dist/chota.min.css")),
				StyleEl(g.Raw(styles)),

				TitleEl(g.Textf("%s · %s", props.Title, constants.APP_NAME)),
			),
			Body(
				Div(Class("container"), Style("margin-top: 1.5em;"),
					NavbarComponent(props),
					FlashesComponent(props.Flashes),
					Main(
						g.Group(children),
					),
				),
				FooterComponent(props),
				Script(g.Raw(likeScript)),
			),
		),
	)
}
