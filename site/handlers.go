package site

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/manoela-fs/blog/constants"
	"github.com/manoela-fs/blog/content"
	"github.com/manoela-fs/blog/errs"
	"github.com/manoela-fs/blog/storage"
	templates "github.com/manoela-fs/blog/templates_fancy"
	"github.com/manoela-fs/blog/users"
)

func (s *Server) UserSignIn(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		if getSignedInUserOrNil(r) != nil {
			http.Redirect(w, r, "/post/feed", http.StatusSeeOther)
			return
		}
		RenderPage(w, http.StatusOK, templates.LoginPage(s.layoutProps(w, r, "login.title"), templates.LoginProps{}))

	case "POST":
		email := r.FormValue("email")
		password := r.FormValue("password")

		user, err := s.Users.Authenticate(r.Context(), email, password)
		if errors.Is(err, errs.ErrInvalidCredential) {
			RenderPage(w, http.StatusUnauthorized, templates.LoginPage(s.layoutProps(w, r, "login.title"), templates.LoginProps{
				Email: email,
				Error: "error.invalid_credentials",
			}))
			return
		}
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		token, err := s.Users.StartSession(r.Context(), user.ID)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     constants.SESSION_TOKEN_COOKIE,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		s.setSessionLocale(w, r, user.Locale)

		http.Redirect(w, r, "/post/feed", http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) UserSignUp(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		if getSignedInUserOrNil(r) != nil {
			http.Redirect(w, r, "/post/feed", http.StatusSeeOther)
			return
		}
		RenderPage(w, http.StatusOK, templates.RegisterPage(s.layoutProps(w, r, "register.title"), templates.RegisterProps{}))

	case "POST":
		var form templates.RegisterProps
		fail := func(status int) {
			RenderPage(w, status, templates.RegisterPage(s.layoutProps(w, r, "register.title"), form))
		}

		if err := s.parseUploadForm(w, r); err != nil {
			form.Error = "error.upload_too_large"
			fail(http.StatusRequestEntityTooLarge)
			return
		}
		form.Name, form.Email, form.Locale = r.FormValue("name"), r.FormValue("email"), r.FormValue("locale")
		avatar, closeAvatar, err := formUpload(r, "avatar")
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		defer closeAvatar()

		_, err = s.Users.Register(r.Context(), users.Registration{
			Name:     form.Name,
			Email:    form.Email,
			Password: r.FormValue("password"),
			Locale:   form.Locale,
			Avatar:   avatar,
		})
		switch {
		case errors.Is(err, errs.ErrValidation):
			form.Errors = errs.Fields(err)
			fail(http.StatusUnprocessableEntity)
		case errors.Is(err, errs.ErrDuplicateEmail):
			form.Error = "error.duplicate_email"
			fail(http.StatusConflict)
		case err != nil:
			s.handleError(w, r, err)
		default:
			s.redirectWithFlash(w, r, "/login", constants.FLASH_SUCCESS, "flash.registered")
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) UserLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(constants.SESSION_TOKEN_COOKIE); err == nil {
		if err := s.Users.EndSession(r.Context(), cookie.Value); err != nil {
			s.handleError(w, r, err)
			return
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) Feed(w http.ResponseWriter, r *http.Request) {
	locale := currentLocale(r)

	var selected uint
	if raw := r.URL.Query().Get(constants.CATEGORY_QUERY_PARAM); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.renderError(w, r, http.StatusBadRequest, "flash.not_found")
			return
		}
		selected = uint(id)
	}

	var (
		posts []content.PostView
		err   error
	)
	if selected != 0 {
		posts, err = s.Posts.ListByCategory(r.Context(), selected, locale, viewerID(r))
	} else {
		posts, err = s.Posts.ListAll(r.Context(), locale, viewerID(r))
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	categories, err := s.Catalog.ListTranslated(r.Context(), locale)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	RenderPage(w, http.StatusOK, templates.FeedPage(s.layoutProps(w, r, "feed.title"), templates.FeedProps{
		Posts:            posts,
		Categories:       categories,
		SelectedCategory: selected,
	}))
}

func (s *Server) PublicViewPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	post, err := s.Posts.GetOne(r.Context(), postID, currentLocale(r), viewerID(r))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	props := s.layoutProps(w, r, "feed.title")
	props.Title = post.Title
	RenderPage(w, http.StatusOK, templates.PostPage(props, post))
}

func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.renderPostForm(w, r, http.StatusOK, templates.PostFormProps{Action: "/post/create"})

	case "POST":
		form := templates.PostFormProps{Action: "/post/create"}
		if err := s.parseUploadForm(w, r); err != nil {
			form.Errors = map[string]string{"image": "upload_too_large"}
			s.renderPostForm(w, r, http.StatusRequestEntityTooLarge, form)
			return
		}
		form.Title, form.Content = r.FormValue("title"), r.FormValue("content")
		form.CategoryID = formUint(r, "category")

		image, closeImage, err := formUpload(r, "image")
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		defer closeImage()

		post, err := s.Posts.CreatePost(r.Context(), content.NewPost{
			CategoryID: form.CategoryID,
			Title:      form.Title,
			Content:    form.Content,
			Image:      image,
		}, *getSignedInUserOrFail(r))
		if s.formFailed(w, r, err, &form) {
			return
		}

		s.redirectWithFlash(w, r, "/post/"+post.ID, constants.FLASH_SUCCESS, "flash.post_created")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) EditPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	currentUser := getSignedInUserOrFail(r)

	post, err := s.Posts.GetPost(r.Context(), postID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if post.UserID != currentUser.ID {
		s.handleError(w, r, errs.ErrPermissionDenied)
		return
	}

	action := "/post/" + postID + "/edit"
	switch r.Method {
	case "GET":
		source, err := s.Posts.SourceTranslation(r.Context(), postID)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		form := templates.PostFormProps{
			Action:     action,
			IsEdit:     true,
			CategoryID: post.CategoryID,
			Image:      post.Image,
		}
		if source.Title != nil {
			form.Title = *source.Title
		}
		if source.Content != nil {
			form.Content = *source.Content
		}
		s.renderPostForm(w, r, http.StatusOK, form)

	case "POST":
		form := templates.PostFormProps{Action: action, IsEdit: true, Image: post.Image}
		if err := s.parseUploadForm(w, r); err != nil {
			form.Errors = map[string]string{"image": "upload_too_large"}
			s.renderPostForm(w, r, http.StatusRequestEntityTooLarge, form)
			return
		}
		form.Title, form.Content = r.FormValue("title"), r.FormValue("content")
		form.CategoryID = formUint(r, "category")

		image, closeImage, err := formUpload(r, "image")
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		defer closeImage()

		err = s.Posts.EditPost(r.Context(), postID, content.PostEdit{
			CategoryID: form.CategoryID,
			Title:      form.Title,
			Content:    form.Content,
			Image:      image,
		}, *currentUser)
		if s.formFailed(w, r, err, &form) {
			return
		}

		s.redirectWithFlash(w, r, "/post/"+postID, constants.FLASH_SUCCESS, "flash.post_updated")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	err := s.Posts.DeletePost(r.Context(), postID, *getSignedInUserOrFail(r))
	switch {
	case errors.Is(err, errs.ErrNotFound):
		s.redirectWithFlash(w, r, "/post/feed", constants.FLASH_ERROR, "flash.not_found")
	case err != nil:
		s.handleError(w, r, err)
	default:
		s.redirectWithFlash(w, r, "/post/feed", constants.FLASH_SUCCESS, "flash.post_deleted")
	}
}

type likeResponse struct {
	Liked      bool  `json:"curtido"`
	TotalLikes int64 `json:"totalCurtidas"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user := getSignedInUserOrNil(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}
	postID := chi.URLParam(r, "postID")

	liked, err := s.Likes.Toggle(r.Context(), user.ID, postID)
	if errors.Is(err, errs.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "post not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not update like"})
		return
	}

	total, err := s.Likes.CountFor(r.Context(), postID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not count likes"})
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: liked, TotalLikes: total})
}

func (s *Server) PublicViewUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := s.Users.ByID(r.Context(), userID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	posts, err := s.Posts.ListForUser(r.Context(), user.ID, currentLocale(r), viewerID(r))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	RenderPage(w, http.StatusOK, templates.ProfilePage(s.layoutProps(w, r, "profile.title", user.Name), templates.ProfileProps{
		User:  user,
		Posts: posts,
	}))
}

func (s *Server) EditProfile(w http.ResponseWriter, r *http.Request) {
	currentUser := getSignedInUserOrFail(r)
	form := templates.EditProfileProps{
		Name:   currentUser.Name,
		Email:  currentUser.Email,
		Locale: currentUser.Locale,
		Avatar: currentUser.Avatar,
	}
	show := func(status int) {
		RenderPage(w, status, templates.EditProfilePage(s.layoutProps(w, r, "profile.edit"), form))
	}

	switch r.Method {
	case "GET":
		show(http.StatusOK)

	case "POST":
		if err := s.parseUploadForm(w, r); err != nil {
			form.Error = "error.upload_too_large"
			show(http.StatusRequestEntityTooLarge)
			return
		}
		form.Name, form.Email, form.Locale = r.FormValue("name"), r.FormValue("email"), r.FormValue("locale")

		avatar, closeAvatar, err := formUpload(r, "avatar")
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		defer closeAvatar()

		updated, err := s.Users.EditProfile(r.Context(), currentUser.ID, users.ProfileEdit{
			Name:            form.Name,
			Email:           form.Email,
			Locale:          form.Locale,
			CurrentPassword: r.FormValue("current_password"),
			NewPassword:     r.FormValue("new_password"),
			ConfirmPassword: r.FormValue("confirm_password"),
			Avatar:          avatar,
		})
		switch {
		case errors.Is(err, errs.ErrValidation):
			form.Errors = errs.Fields(err)
			show(http.StatusUnprocessableEntity)
		case errors.Is(err, errs.ErrInvalidCredential):
			form.Error = "error.wrong_password"
			show(http.StatusUnprocessableEntity)
		case errors.Is(err, errs.ErrDuplicateEmail):
			form.Error = "error.duplicate_email"
			show(http.StatusConflict)
		case err != nil:
			s.handleError(w, r, err)
		default:
			if updated.Locale != currentUser.Locale {
				s.setSessionLocale(w, r, updated.Locale)
			}
			s.redirectWithFlash(w, r, "/usuario/"+updated.ID, constants.FLASH_SUCCESS, "flash.profile_updated")
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) Activity(w http.ResponseWriter, r *http.Request) {
	currentUser := getSignedInUserOrFail(r)
	locale := currentLocale(r)

	likesByCategory, err := s.Likes.LikesByCategoryFor(r.Context(), currentUser.ID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	postsByCategory, err := s.Posts.PostsByCategoryFor(r.Context(), currentUser.ID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	names, err := s.Catalog.NamesFor(r.Context(), locale)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	nameOf := func(id uint) string {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return templates.T(locale, "activity.unknown")
	}

	data := templates.ActivityProps{}
	for _, c := range likesByCategory {
		data.LikesByCategory = append(data.LikesByCategory, templates.CategoryStat{Name: nameOf(c.CategoryID), Count: c.Count})
	}
	for _, c := range postsByCategory {
		data.PostsByCategory = append(data.PostsByCategory, templates.CategoryStat{Name: nameOf(c.CategoryID), Count: c.Count})
	}

	RenderPage(w, http.StatusOK, templates.ActivityPage(s.layoutProps(w, r, "activity.title"), data))
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, status int, form templates.PostFormProps) {
	categories, err := s.Catalog.ListTranslated(r.Context(), currentLocale(r))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	form.Categories = categories

	titleKey := "post.new_title"
	if form.IsEdit {
		titleKey = "post.edit_title"
	}
	RenderPage(w, status, templates.PostFormPage(s.layoutProps(w, r, titleKey), form))
}

// formFailed renders the post form again for validation errors and handles
// every other error. It reports whether the request is finished.
func (s *Server) formFailed(w http.ResponseWriter, r *http.Request, err error, form *templates.PostFormProps) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, errs.ErrValidation):
		form.Errors = errs.Fields(err)
		s.renderPostForm(w, r, http.StatusUnprocessableEntity, *form)
	default:
		s.handleError(w, r, err)
	}
	return true
}

// parseUploadForm parses both multipart and urlencoded bodies, capped at MaxUploadBytes.
func (s *Server) parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = constants.DEFAULT_UPLOAD_MAX_MiB << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := r.ParseMultipartForm(limit)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

func formUint(r *http.Request, field string) uint {
	v, err := strconv.ParseUint(r.FormValue(field), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// formUpload returns nil when the field carries no file.
func formUpload(r *http.Request, field string) (*storage.Upload, func(), error) {
	noop := func() {}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}
	if header.Size == 0 {
		file.Close()
		return nil, noop, nil
	}
	return &storage.Upload{Name: header.Filename, Reader: file}, func() { file.Close() }, nil
}
