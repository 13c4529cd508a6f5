package templates

import (
	"strconv"

	"github.com/manoela-fs/blog/content"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/locales"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type LoginProps struct {
	Email string
	Error string
}

func LoginPage(props LayoutProps, data LoginProps) g.Node {
	return Layout(props,
		H1(g.Text(props.t("login.title"))),
		errorMessage(props, data.Error),
		FormEl(Method("post"), Action("/login"),
			textField(props, "email", "email", "form.email", data.Email, nil),
			passwordField(props, "password", "form.password", nil),
			Button(Type("submit"), Class("button primary"), g.Text(props.t("nav.login"))),
		),
		P(g.Text(props.t("login.no_account")+" "), A(Href("/register"), g.Text(props.t("nav.register")))),
	)
}

type RegisterProps struct {
	Name   string
	Email  string
	Locale string
	Error  string
	Errors map[string]string
}

func RegisterPage(props LayoutProps, data RegisterProps) g.Node {
	return Layout(props,
		H1(g.Text(props.t("register.title"))),
		errorMessage(props, data.Error),
		FormEl(Method("post"), Action("/register"), g.Attr("enctype", "multipart/form-data"),
			textField(props, "name", "text", "form.name", data.Name, data.Errors),
			textField(props, "email", "email", "form.email", data.Email, data.Errors),
			passwordField(props, "password", "form.password", data.Errors),
			localeField(props, data.Locale, data.Errors),
			fileField(props, "avatar", "form.avatar", data.Errors),
			Button(Type("submit"), Class("button primary"), g.Text(props.t("nav.register"))),
		),
	)
}

type ProfileProps struct {
	User  database.User
	Posts []content.PostView
}

func ProfilePage(props LayoutProps, data ProfileProps) g.Node {
	cards := make([]g.Node, 0, len(data.Posts))
	for _, p := range data.Posts {
		cards = append(cards, postCard(props, p))
	}
	isSelf := props.CurrentUserID == data.User.ID

	return Layout(props,
		Header(Class("row"),
			Div(Class("col"),
				H1(avatar(data.User.Avatar, data.User.Name), g.Text(" "+props.t("profile.title", data.User.Name))),
				P(Class("text-grey"), g.Text(props.t("profile.member_since", data.User.CreatedAt.Format("02/01/2006")))),
			),
			g.If(isSelf,
				Div(Class("col is-right"),
					A(Class("button outline"), Href("/usuario/edit"), g.Text(props.t("profile.edit"))),
				),
			),
		),
		H2(g.Text(props.t("profile.posts"))),
		g.If(len(cards) == 0, P(Class("text-grey"), g.Text(props.t("feed.empty")))),
		g.Group(cards),
	)
}

type EditProfileProps struct {
	Name   string
	Email  string
	Locale string
	Avatar *string
	Error  string
	Errors map[string]string
}

func EditProfilePage(props LayoutProps, data EditProfileProps) g.Node {
	return Layout(props,
		H1(g.Text(props.t("profile.edit"))),
		errorMessage(props, data.Error),
		FormEl(Method("post"), Action("/usuario/edit"), g.Attr("enctype", "multipart/form-data"),
			textField(props, "name", "text", "form.name", data.Name, data.Errors),
			textField(props, "email", "email", "form.email", data.Email, data.Errors),
			localeField(props, data.Locale, data.Errors),
			P(avatar(data.Avatar, data.Name)),
			fileField(props, "avatar", "form.avatar", data.Errors),
			passwordField(props, "current_password", "form.current_password", data.Errors),
			passwordField(props, "new_password", "form.new_password", data.Errors),
			passwordField(props, "confirm_password", "form.confirm_password", data.Errors),
			Button(Type("submit"), Class("button primary"), g.Text(props.t("form.save"))),
		),
	)
}

type CategoryStat struct {
	Name  string
	Count int64
}

type ActivityProps struct {
	LikesByCategory []CategoryStat
	PostsByCategory []CategoryStat
}

func ActivityPage(props LayoutProps, data ActivityProps) g.Node {
	return Layout(props,
		H1(g.Text(props.t("activity.title"))),
		Div(Class("row"),
			Div(Class("col"),
				H3(g.Text(props.t("activity.likes"))),
				statsTable(props, data.LikesByCategory),
			),
			Div(Class("col"),
				H3(g.Text(props.t("activity.posts"))),
				statsTable(props, data.PostsByCategory),
			),
		),
	)
}

func statsTable(props LayoutProps, stats []CategoryStat) g.Node {
	if len(stats) == 0 {
		return P(Class("text-grey"), g.Text(props.t("activity.empty")))
	}
	rows := make([]g.Node, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, Tr(Td(g.Text(s.Name)), Td(g.Text(strconv.FormatInt(s.Count, 10)))))
	}
	return Table(
		THead(Tr(Th(g.Text(props.t("form.category"))), Th(g.Text("#")))),
		TBody(g.Group(rows)),
	)
}

func ErrorPage(props LayoutProps, status int, message string) g.Node {
	return Layout(props,
		H1(g.Textf("%d · %s", status, props.t("error.title"))),
		P(g.Text(message)),
		P(A(Href("/post/feed"), g.Text(props.t("error.back")))),
	)
}

func errorMessage(props LayoutProps, key string) g.Node {
	if key == "" {
		return nil
	}
	return Div(Class("card bd-error text-error"), g.Attr("role", "alert"), g.Text(props.t(key)))
}

func textField(props LayoutProps, name, inputType, labelKey, value string, errors map[string]string) g.Node {
	return P(
		Label(For(name), g.Text(props.t(labelKey))),
		Input(ID(name), Name(name), Type(inputType), Value(value), Required()),
		fieldError(props, errors, name),
	)
}

func passwordField(props LayoutProps, name, labelKey string, errors map[string]string) g.Node {
	return P(
		Label(For(name), g.Text(props.t(labelKey))),
		Input(ID(name), Name(name), Type("password")),
		fieldError(props, errors, name),
	)
}

func fileField(props LayoutProps, name, labelKey string, errors map[string]string) g.Node {
	return P(
		Label(For(name), g.Text(props.t(labelKey))),
		Input(ID(name), Name(name), Type("file"), g.Attr("accept", "image/*")),
		fieldError(props, errors, name),
	)
}

func localeField(props LayoutProps, selected string, errors map[string]string) g.Node {
	if selected == "" {
		selected = props.Locale
	}
	options := make([]g.Node, 0, len(locales.Supported))
	for _, locale := range locales.Supported {
		options = append(options, Option(Value(locale), g.If(locale == selected, Selected()), g.Text(props.t("locale."+locale))))
	}
	return P(
		Label(For("locale"), g.Text(props.t("form.locale"))),
		Select(ID("locale"), Name("locale"), g.Group(options)),
		fieldError(props, errors, "locale"),
	)
}
