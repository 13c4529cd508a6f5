package templates

import (
	"fmt"
	"strconv"

	"github.com/manoela-fs/blog/constants"
	"github.com/manoela-fs/blog/content"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/storage"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

const dateLayout = "02/01/2006 15:04"

type FeedProps struct {
	Posts            []content.PostView
	Categories       []database.CategoryTranslation
	SelectedCategory uint
}

func FeedPage(props LayoutProps, data FeedProps) g.Node {
	cards := make([]g.Node, 0, len(data.Posts))
	for _, p := range data.Posts {
		cards = append(cards, postCard(props, p))
	}

	return Layout(props,
		H1(g.Text(props.t("feed.title"))),
		categoryFilter(props, data),
		g.If(len(cards) == 0, P(Class("text-grey"), g.Text(props.t("feed.empty")))),
		g.Group(cards),
	)
}

func categoryFilter(props LayoutProps, data FeedProps) g.Node {
	options := []g.Node{
		Option(Value(""), g.If(data.SelectedCategory == 0, Selected()), g.Text(props.t("feed.all"))),
	}
	for _, c := range data.Categories {
		options = append(options, Option(
			Value(strconv.FormatUint(uint64(c.CategoryID), 10)),
			g.If(c.CategoryID == data.SelectedCategory, Selected()),
			g.Text(c.Name),
		))
	}
	return FormEl(Method("get"), Action("/post/feed"), Class("row"),
		Div(Class("col"),
			Select(Name(constants.CATEGORY_QUERY_PARAM), g.Group(options)),
		),
		Div(Class("col-2"),
			Button(Type("submit"), Class("button outline"), g.Text(props.t("feed.filter"))),
		),
	)
}

func postMeta(props LayoutProps, p content.PostView) g.Node {
	return P(Class("post-meta"),
		avatar(p.AuthorAvatar, p.AuthorName),
		A(Href("/usuario/"+p.AuthorID), g.Text(props.t("post.by", p.AuthorName))),
		g.Text(" · "),
		A(Href(fmt.Sprintf("/post/feed?%s=%d", constants.CATEGORY_QUERY_PARAM, p.CategoryID)), g.Text(p.CategoryName)),
		g.Text(" · "),
		g.Text(p.CreatedAt.Format(dateLayout)),
	)
}

func likeButton(props LayoutProps, p content.PostView) g.Node {
	class := "button like-button"
	if p.LikedByViewer {
		class += " liked"
	}
	return Button(Type("button"), Class(class), g.Attr("data-post-id", p.ID),
		g.Text("♥ "+props.t("post.like")+" "),
		Span(Class("like-count"), g.Text(strconv.FormatInt(p.Likes, 10))),
		g.Text(" "),
		Span(Class("text-grey"), g.Text(props.t("post.likes"))),
	)
}

func untranslatedNotice(props LayoutProps, p content.PostView) g.Node {
	return g.If(p.Untranslated,
		P(Class("untranslated"), g.Attr("lang", props.Locale), g.Text(props.t("post.untranslated"))),
	)
}

func avatar(name *string, alt string) g.Node {
	if name == nil {
		return nil
	}
	return Img(Class("avatar"), Src(storage.URL(*name)), Alt(alt))
}

func imagePreview(name *string) g.Node {
	if name == nil {
		return nil
	}
	return Img(Src(storage.URL(*name)), Style("max-width: 200px; display: block;"))
}

func postImage(p content.PostView) g.Node {
	if p.Image == nil {
		return nil
	}
	return Img(Src(storage.URL(*p.Image)), Alt(p.Title))
}

func postCard(props LayoutProps, p content.PostView) g.Node {
	return Article(Class("card post-card"),
		Header(
			H3(A(Href("/post/"+p.ID), g.Text(p.Title))),
			postMeta(props, p),
		),
		untranslatedNotice(props, p),
		postImage(p),
		Div(Class("post-body"), markdownNode(p.Content)),
		Footer(Class("is-right"),
			likeButton(props, p),
			A(Class("button clear"), Href("/post/"+p.ID), g.Text(props.t("post.read_more"))),
		),
	)
}

func PostPage(props LayoutProps, p content.PostView) g.Node {
	isOwner := props.CurrentUserID != "" && props.CurrentUserID == p.AuthorID
	return Layout(props,
		Article(Class("post-full"),
			H1(g.Text(p.Title)),
			postMeta(props, p),
			untranslatedNotice(props, p),
			postImage(p),
			Div(Class("post-body"), markdownNode(p.Content)),
			Div(Class("row"),
				Div(Class("col"), likeButton(props, p)),
				g.If(isOwner,
					Div(Class("col is-right"),
						A(Class("button outline"), Href("/post/"+p.ID+"/edit"), g.Text(props.t("post.edit"))),
						FormEl(Method("post"), Action("/post/"+p.ID+"/delete"), Class("inline"),
							g.Attr("onsubmit", fmt.Sprintf("return confirm(%q);", props.t("post.confirm_delete"))),
							Button(Type("submit"), Class("button error"), g.Text(props.t("post.delete"))),
						),
					),
				),
			),
		),
	)
}

type PostFormProps struct {
	Action     string
	IsEdit     bool
	Title      string
	Content    string
	CategoryID uint
	Image      *string
	Categories []database.CategoryTranslation
	Errors     map[string]string
}

func fieldError(props LayoutProps, errors map[string]string, field string) g.Node {
	msg, ok := errors[field]
	if !ok {
		return nil
	}
	return P(Class("field-error"), g.Text(props.t("validation."+msg)))
}

func PostFormPage(props LayoutProps, data PostFormProps) g.Node {
	heading, submit := props.t("post.new_title"), props.t("form.publish")
	if data.IsEdit {
		heading, submit = props.t("post.edit_title"), props.t("form.save")
	}

	options := make([]g.Node, 0, len(data.Categories))
	for _, c := range data.Categories {
		options = append(options, Option(
			Value(strconv.FormatUint(uint64(c.CategoryID), 10)),
			g.If(c.CategoryID == data.CategoryID, Selected()),
			g.Text(c.Name),
		))
	}

	return Layout(props,
		H1(g.Text(heading)),
		FormEl(Method("post"), Action(data.Action), g.Attr("enctype", "multipart/form-data"),
			P(
				Label(For("title"), g.Text(props.t("form.title"))),
				Input(ID("title"), Name("title"), Type("text"), Value(data.Title), Required(),
					g.Attr("maxlength", strconv.Itoa(constants.MAX_TITLE_LENGTH))),
				fieldError(props, data.Errors, "title"),
			),
			P(
				Label(For("category"), g.Text(props.t("form.category"))),
				Select(ID("category"), Name("category"), Required(), g.Group(options)),
				fieldError(props, data.Errors, "category"),
			),
			P(
				Label(For("content"), g.Text(props.t("form.content"))),
				Textarea(ID("content"), Name("content"), Rows("12"), Required(),
					g.Attr("maxlength", strconv.Itoa(constants.MAX_CONTENT_LENGTH)),
					g.Text(data.Content)),
				Small(Class("text-grey"), g.Text(props.t("form.markdown_hint"))),
				fieldError(props, data.Errors, "content"),
			),
			P(
				Label(For("image"), g.Text(props.t("form.image"))),
				imagePreview(data.Image),
				Input(ID("image"), Name("image"), Type("file"), g.Attr("accept", "image/*")),
				fieldError(props, data.Errors, "image"),
			),
			Button(Type("submit"), Class("button primary"), g.Text(submit)),
		),
	)
}
