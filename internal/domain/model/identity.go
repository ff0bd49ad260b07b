package model

// Identity — аутентифицированный пользователь из JWT.
// Заполняется middleware аутентификации и передаётся в сервисный слой.
type Identity struct {
	// Subject — идентификатор пользователя (claim sub)
	Subject string
	// Name — отображаемое имя (claim name)
	Name string
	// Email — адрес электронной почты (claim email), используется в грантах
	Email string
}
