package db

import (
	"fmt"

	"gorm.io/gorm"
)

// schema lists the tables in dependency order. The statements are portable
// between sqlite and postgres.
var schema = []struct {
	table string
	ddl   string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		usr INTEGER PRIMARY KEY,
		pwd TEXT,
		name TEXT,
		email TEXT,
		city TEXT,
		timezone REAL
	)`},
	{"tweets", `CREATE TABLE IF NOT EXISTS tweets (
		tid INTEGER PRIMARY KEY,
		writer INTEGER NOT NULL REFERENCES users(usr),
		tdate TIMESTAMP NOT NULL,
		text TEXT,
		replyto INTEGER REFERENCES tweets(tid)
	)`},
	{"hashtags", `CREATE TABLE IF NOT EXISTS hashtags (
		term TEXT PRIMARY KEY
	)`},
	{"mentions", `CREATE TABLE IF NOT EXISTS mentions (
		tid INTEGER NOT NULL REFERENCES tweets(tid),
		term TEXT NOT NULL REFERENCES hashtags(term),
		PRIMARY KEY (tid, term)
	)`},
	{"retweets", `CREATE TABLE IF NOT EXISTS retweets (
		usr INTEGER NOT NULL REFERENCES users(usr),
		tid INTEGER NOT NULL REFERENCES tweets(tid),
		rdate TIMESTAMP NOT NULL,
		PRIMARY KEY (usr, tid)
	)`},
	{"follows", `CREATE TABLE IF NOT EXISTS follows (
		flwer INTEGER NOT NULL REFERENCES users(usr),
		flwee INTEGER NOT NULL REFERENCES users(usr),
		start_date TIMESTAMP NOT NULL,
		PRIMARY KEY (flwer, flwee)
	)`},
}

// Bootstrap creates any missing table. Existing tables are left untouched.
func Bootstrap(db *gorm.DB) error {
	for _, t := range schema {
		if err := db.Exec(t.ddl).Error; err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.table, err)
		}
	}
	return nil
}
