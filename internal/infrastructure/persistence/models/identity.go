package models

import (
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/identity"
)

// UserModel is the persistence model for identity.User
type UserModel struct {
	BaseModel
	Email          string `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	PasswordHash   string `gorm:"type:varchar(255);not null"`
	IsAdmin        bool   `gorm:"not null;default:false"`
	FullName       string `gorm:"type:varchar(200)"`
	DefaultAddress string `gorm:"type:text"`
	Avatar         string `gorm:"type:varchar(500)"`
	EmailConfirmed bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:     m.BaseModel.ToDomain(),
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		IsAdmin:        m.IsAdmin,
		FullName:       m.FullName,
		DefaultAddress: m.DefaultAddress,
		Avatar:         m.Avatar,
		EmailConfirmed: m.EmailConfirmed,
	}
}

// FromDomain populates the model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.IsAdmin = u.IsAdmin
	m.FullName = u.FullName
	m.DefaultAddress = u.DefaultAddress
	m.Avatar = u.Avatar
	m.EmailConfirmed = u.EmailConfirmed
}
