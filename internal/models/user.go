package models

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"`
	Name     string `gorm:"size:255" json:"name"`
	Base
}

func (User) TableName() string {
	return "users"
}

func NewUser(email, hashedPassword, name string) *User {
	return &User{
		Email:    email,
		Password: hashedPassword,
		Name:     name,
		Base:     NewBase(),
	}
}
