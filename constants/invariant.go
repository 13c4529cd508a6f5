package constants

const (
	APP_NAME = "Babel Blog"

	MAX_POSTS_TO_SHOW  = 2000
	MAX_TITLE_LENGTH   = 200
	MAX_CONTENT_LENGTH = 5500
	MAX_NAME_LENGTH    = 100
	MAX_EMAIL_LENGTH   = 254
	MIN_PASSWORD_LEN   = 6

	SESSION_NAME           = "blog_session"
	SESSION_TOKEN_COOKIE   = "authenticated_user_token"
	SESSION_LOCALE_KEY     = "locale"
	LOCALE_QUERY_PARAM     = "lang"
	CATEGORY_QUERY_PARAM   = "categoria"
	UPLOADS_URL_PREFIX     = "/uploads/"
	FLASH_SUCCESS          = "success"
	FLASH_ERROR            = "error"
	DEFAULT_UPLOAD_MAX_MiB = 10
)
