package models

import "time"

// User represents the database model for users
type User struct {
	Usr      int64   `gorm:"primaryKey;column:usr;autoIncrement:false" json:"usr"`
	Pwd      string  `gorm:"column:pwd" json:"-"`
	Name     string  `gorm:"column:name" json:"name"`
	Email    string  `gorm:"column:email" json:"email"`
	City     string  `gorm:"column:city" json:"city"`
	Timezone float64 `gorm:"column:timezone" json:"timezone"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary is a user row without credentials, as returned by lookups and
// user search.
type UserSummary struct {
	Usr      int64   `gorm:"column:usr" json:"usr"`
	Name     string  `gorm:"column:name" json:"name"`
	Email    string  `gorm:"column:email" json:"email"`
	City     string  `gorm:"column:city" json:"city"`
	Timezone float64 `gorm:"column:timezone" json:"timezone"`
}

// UserSummaryColumns selects the UserSummary columns from the users table.
const UserSummaryColumns = "users.usr, users.name, users.email, users.city, users.timezone"

// Follow is a directed edge: Flwer follows Flwee since StartDate.
type Follow struct {
	Flwer     int64     `gorm:"primaryKey;column:flwer;autoIncrement:false" json:"flwer"`
	Flwee     int64     `gorm:"primaryKey;column:flwee;autoIncrement:false" json:"flwee"`
	StartDate time.Time `gorm:"column:start_date;not null" json:"start_date"`
}

func (Follow) TableName() string {
	return "follows"
}
