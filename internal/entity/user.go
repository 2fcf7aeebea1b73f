package entity

type UserLoginData struct {
	ID       string
	Username string
	Email    string
	Name     string
}
