package models

import (
	"time"
)

// Tweet represents the database model for tweets. It is also the result row
// returned by feed and search queries.
type Tweet struct {
	Tid     int64     `gorm:"primaryKey;column:tid;autoIncrement:false" json:"tid"`
	Writer  int64     `gorm:"column:writer;not null" json:"writer"`
	Tdate   time.Time `gorm:"column:tdate;not null" json:"tdate"`
	Text    string    `gorm:"column:text" json:"text"`
	Replyto *int64    `gorm:"column:replyto" json:"replyto,omitempty"`
}

// TableName specifies the table name for the Tweet model
func (Tweet) TableName() string {
	return "tweets"
}

// Retweet is a user re-sharing a tweet. (usr, tid) is unique.
type Retweet struct {
	Usr   int64     `gorm:"primaryKey;column:usr;autoIncrement:false" json:"usr"`
	Tid   int64     `gorm:"primaryKey;column:tid;autoIncrement:false" json:"tid"`
	Rdate time.Time `gorm:"column:rdate;not null" json:"rdate"`
}

func (Retweet) TableName() string {
	return "retweets"
}

// Hashtag is a distinct hashtag term, stored without the leading '#'.
type Hashtag struct {
	Term string `gorm:"primaryKey;column:term" json:"term"`
}

func (Hashtag) TableName() string {
	return "hashtags"
}

// Mention links a tweet to a hashtag term it contains.
type Mention struct {
	Tid  int64  `gorm:"primaryKey;column:tid;autoIncrement:false" json:"tid"`
	Term string `gorm:"primaryKey;column:term" json:"term"`
}

func (Mention) TableName() string {
	return "mentions"
}
