package templates

import (
	"github.com/manoela-fs/blog/locales"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// ui holds every interface string, keyed by message id, in each supported locale.
var ui = map[string]map[string]string{
	"nav.feed":              {"pt-BR": "Feed", "en": "Feed", "es": "Inicio"},
	"nav.new_post":          {"pt-BR": "Nova publicação", "en": "New post", "es": "Nueva publicación"},
	"nav.profile":           {"pt-BR": "Meu perfil", "en": "My profile", "es": "Mi perfil"},
	"nav.activity":          {"pt-BR": "Atividade", "en": "Activity", "es": "Actividad"},
	"nav.login":             {"pt-BR": "Entrar", "en": "Log in", "es": "Iniciar sesión"},
	"nav.register":          {"pt-BR": "Cadastrar", "en": "Sign up", "es": "Registrarse"},
	"nav.logout":            {"pt-BR": "Sair", "en": "Log out", "es": "Salir"},
	"nav.logged_in_as":      {"pt-BR": "Conectado como %s", "en": "Logged in as %s", "es": "Conectado como %s"},
	"nav.language":          {"pt-BR": "Idioma", "en": "Language", "es": "Idioma"},
	"locale.pt-BR":          {"pt-BR": "Português", "en": "Portuguese", "es": "Portugués"},
	"locale.en":             {"pt-BR": "Inglês", "en": "English", "es": "Inglés"},
	"locale.es":             {"pt-BR": "Espanhol", "en": "Spanish", "es": "Español"},
	"feed.title":            {"pt-BR": "Publicações", "en": "Posts", "es": "Publicaciones"},
	"feed.all":              {"pt-BR": "Todas as categorias", "en": "All categories", "es": "Todas las categorías"},
	"feed.filter":           {"pt-BR": "Filtrar", "en": "Filter", "es": "Filtrar"},
	"feed.empty":            {"pt-BR": "Nenhuma publicação ainda.", "en": "No posts yet.", "es": "Aún no hay publicaciones."},
	"post.by":               {"pt-BR": "por %s", "en": "by %s", "es": "por %s"},
	"post.read_more":        {"pt-BR": "Ler mais", "en": "Read more", "es": "Leer más"},
	"post.likes":            {"pt-BR": "curtidas", "en": "likes", "es": "me gusta"},
	"post.like":             {"pt-BR": "Curtir", "en": "Like", "es": "Me gusta"},
	"post.untranslated":     {"pt-BR": "Tradução indisponível, exibindo o texto original.", "en": "Translation not available yet, showing the original text.", "es": "Traducción no disponible, se muestra el texto original."},
	"post.edit":             {"pt-BR": "Editar", "en": "Edit", "es": "Editar"},
	"post.delete":           {"pt-BR": "Excluir", "en": "Delete", "es": "Eliminar"},
	"post.confirm_delete":   {"pt-BR": "Excluir esta publicação?", "en": "Delete this post?", "es": "¿Eliminar esta publicación?"},
	"post.new_title":        {"pt-BR": "Nova publicação", "en": "New post", "es": "Nueva publicación"},
	"post.edit_title":       {"pt-BR": "Editar publicação", "en": "Edit post", "es": "Editar publicación"},
	"form.title":            {"pt-BR": "Título", "en": "Title", "es": "Título"},
	"form.content":          {"pt-BR": "Conteúdo", "en": "Content", "es": "Contenido"},
	"form.category":         {"pt-BR": "Categoria", "en": "Category", "es": "Categoría"},
	"form.image":            {"pt-BR": "Imagem", "en": "Image", "es": "Imagen"},
	"form.publish":          {"pt-BR": "Publicar", "en": "Publish", "es": "Publicar"},
	"form.save":             {"pt-BR": "Salvar", "en": "Save", "es": "Guardar"},
	"form.name":             {"pt-BR": "Nome", "en": "Name", "es": "Nombre"},
	"form.email":            {"pt-BR": "E-mail", "en": "Email", "es": "Correo electrónico"},
	"form.password":         {"pt-BR": "Senha", "en": "Password", "es": "Contraseña"},
	"form.locale":           {"pt-BR": "Idioma preferido", "en": "Preferred language", "es": "Idioma preferido"},
	"form.avatar":           {"pt-BR": "Foto", "en": "Photo", "es": "Foto"},
	"form.current_password": {"pt-BR": "Senha atual", "en": "Current password", "es": "Contraseña actual"},
	"form.new_password":     {"pt-BR": "Nova senha", "en": "New password", "es": "Nueva contraseña"},
	"form.confirm_password": {"pt-BR": "Confirmar nova senha", "en": "Confirm new password", "es": "Confirmar nueva contraseña"},
	"form.markdown_hint":    {"pt-BR": "Você pode usar Markdown.", "en": "Markdown is supported.", "es": "Puedes usar Markdown."},
	"login.title":           {"pt-BR": "Entrar", "en": "Log in", "es": "Iniciar sesión"},
	"login.no_account":      {"pt-BR": "Ainda não tem conta?", "en": "No account yet?", "es": "¿Aún no tienes cuenta?"},
	"register.title":        {"pt-BR": "Criar conta", "en": "Create account", "es": "Crear cuenta"},
	"profile.title":         {"pt-BR": "Perfil de %s", "en": "%s's profile", "es": "Perfil de %s"},
	"profile.edit":          {"pt-BR": "Editar perfil", "en": "Edit profile", "es": "Editar perfil"},
	"profile.posts":         {"pt-BR": "Publicações", "en": "Posts", "es": "Publicaciones"},
	"profile.member_since":  {"pt-BR": "Membro desde %s", "en": "Member since %s", "es": "Miembro desde %s"},
	"activity.title":        {"pt-BR": "Minha atividade", "en": "My activity", "es": "Mi actividad"},
	"activity.likes":        {"pt-BR": "Curtidas por categoria", "en": "Likes by category", "es": "Me gusta por categoría"},
	"activity.posts":        {"pt-BR": "Publicações por categoria", "en": "Posts by category", "es": "Publicaciones por categoría"},
	"activity.empty":        {"pt-BR": "Nada por aqui ainda.", "en": "Nothing here yet.", "es": "Nada por aquí todavía."},
	"activity.unknown":      {"pt-BR": "Desconhecida", "en": "Unknown", "es": "Desconocida"},
	"error.title":           {"pt-BR": "Algo deu errado", "en": "Something went wrong", "es": "Algo salió mal"},
	"error.back":            {"pt-BR": "Voltar ao feed", "en": "Back to the feed", "es": "Volver al inicio"},

	"flash.post_created":      {"pt-BR": "Publicação criada. As traduções aparecerão em instantes.", "en": "Post published. Translations will show up shortly.", "es": "Publicación creada. Las traducciones aparecerán en breve."},
	"flash.post_updated":      {"pt-BR": "Publicação atualizada.", "en": "Post updated.", "es": "Publicación actualizada."},
	"flash.post_deleted":      {"pt-BR": "Publicação excluída.", "en": "Post deleted.", "es": "Publicación eliminada."},
	"flash.profile_updated":   {"pt-BR": "Perfil atualizado.", "en": "Profile updated.", "es": "Perfil actualizado."},
	"flash.registered":        {"pt-BR": "Conta criada. Faça login para continuar.", "en": "Account created. Log in to continue.", "es": "Cuenta creada. Inicia sesión para continuar."},
	"flash.login_required":    {"pt-BR": "Faça login para continuar.", "en": "Please log in to continue.", "es": "Inicia sesión para continuar."},
	"flash.not_found":         {"pt-BR": "Não encontrado.", "en": "Not found.", "es": "No encontrado."},
	"flash.permission_denied": {"pt-BR": "Você não tem permissão para isso.", "en": "You are not allowed to do that.", "es": "No tienes permiso para hacer eso."},
	"flash.error":             {"pt-BR": "Ocorreu um erro. Tente novamente.", "en": "Something went wrong. Please try again.", "es": "Ocurrió un error. Inténtalo de nuevo."},

	"error.invalid_credentials": {"pt-BR": "E-mail ou senha inválidos.", "en": "Invalid email or password.", "es": "Correo o contraseña no válidos."},
	"error.wrong_password":      {"pt-BR": "Senha atual incorreta.", "en": "Current password is incorrect.", "es": "La contraseña actual es incorrecta."},
	"error.duplicate_email":     {"pt-BR": "E-mail já está em uso por outro usuário.", "en": "This email is already in use.", "es": "Este correo ya está en uso."},
	"error.upload_too_large":    {"pt-BR": "Arquivo muito grande.", "en": "The file is too large.", "es": "El archivo es demasiado grande."},

	"validation.required":           {"pt-BR": "Campo obrigatório.", "en": "This field is required.", "es": "Este campo es obligatorio."},
	"validation.too_long":           {"pt-BR": "Texto muito longo.", "en": "This text is too long.", "es": "Texto demasiado largo."},
	"validation.invalid_email":      {"pt-BR": "E-mail inválido.", "en": "Invalid email.", "es": "Correo no válido."},
	"validation.password_too_short": {"pt-BR": "A senha deve ter ao menos 6 caracteres.", "en": "Password must have at least 6 characters.", "es": "La contraseña debe tener al menos 6 caracteres."},
	"validation.password_mismatch":  {"pt-BR": "A nova senha e a confirmação não coincidem.", "en": "The new password and its confirmation do not match.", "es": "La nueva contraseña y la confirmación no coinciden."},
	"validation.upload_too_large":   {"pt-BR": "Arquivo muito grande.", "en": "The file is too large.", "es": "El archivo es demasiado grande."},
	"validation.unsupported_locale": {"pt-BR": "Idioma não suportado.", "en": "Unsupported language.", "es": "Idioma no soportado."},
	"validation.not_an_image":       {"pt-BR": "Envie uma imagem PNG, JPEG, GIF ou WebP.", "en": "Upload a PNG, JPEG, GIF or WebP image.", "es": "Sube una imagen PNG, JPEG, GIF o WebP."},
}

var uiCatalog = func() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.MustParse(locales.Default)))
	for key, byLocale := range ui {
		for locale, msg := range byLocale {
			if err := b.SetString(locales.Tag(locale), key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}()

// Printer translates interface strings into locale.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(locales.Tag(locale), message.Catalog(uiCatalog))
}

// T is a shorthand used by the pages.
func T(locale, key string, args ...any) string {
	return Printer(locale).Sprintf(key, args...)
}
