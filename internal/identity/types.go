package identity

// signUpRequest — тело запроса на создание учётной записи у провайдера.
type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// signUpResponse — ответ провайдера на создание учётной записи.
type signUpResponse struct {
	ID string `json:"id"`
}

// tokenResponse — ответ провайдера на вход по паролю.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

// errorResponse — стандартное тело ошибки провайдера.
type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
}

// adminUsersResponse — ответ административного поиска по email.
type adminUsersResponse struct {
	Users []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"users"`
}
