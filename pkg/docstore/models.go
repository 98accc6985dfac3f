package docstore

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TweetDoc is one denormalized tweet document as found in the feed export.
type TweetDoc struct {
	ObjectID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	URL             string             `bson:"url" json:"url"`
	Date            string             `bson:"date" json:"date"`
	Content         string             `bson:"content" json:"content"`
	RenderedContent string             `bson:"renderedContent" json:"renderedContent"`
	ID              int64              `bson:"id" json:"id"`
	User            UserDoc            `bson:"user" json:"user"`
	Outlinks        []string           `bson:"outlinks" json:"outlinks"`
	TcoOutlinks     []string           `bson:"tcooutlinks" json:"tcooutlinks"`
	ReplyCount      int64              `bson:"replyCount" json:"replyCount"`
	RetweetCount    int64              `bson:"retweetCount" json:"retweetCount"`
	LikeCount       int64              `bson:"likeCount" json:"likeCount"`
	QuoteCount      int64              `bson:"quoteCount" json:"quoteCount"`
	ConversationID  int64              `bson:"conversationId" json:"conversationId"`
	Lang            string             `bson:"lang" json:"lang"`
	Source          string             `bson:"source" json:"source"`
	SourceURL       string             `bson:"sourceUrl" json:"sourceUrl"`
	SourceLabel     string             `bson:"sourceLabel" json:"sourceLabel"`
	Media           interface{}        `bson:"media" json:"media"`
	RetweetedTweet  interface{}        `bson:"retweetedTweet" json:"retweetedTweet"`
	QuotedTweet     interface{}        `bson:"quotedTweet" json:"quotedTweet"`
	MentionedUsers  interface{}        `bson:"mentionedUsers" json:"mentionedUsers"`
}

// UserDoc is the author sub-document embedded in every tweet.
type UserDoc struct {
	Username         string      `bson:"username" json:"username"`
	Displayname      string      `bson:"displayname" json:"displayname"`
	ID               int64       `bson:"id" json:"id"`
	Description      string      `bson:"description" json:"description"`
	RawDescription   string      `bson:"rawDescription" json:"rawDescription"`
	DescriptionURLs  interface{} `bson:"descriptionUrls" json:"descriptionUrls"`
	Verified         bool        `bson:"verified" json:"verified"`
	Created          string      `bson:"created" json:"created"`
	FollowersCount   int64       `bson:"followersCount" json:"followersCount"`
	FriendsCount     int64       `bson:"friendsCount" json:"friendsCount"`
	StatusesCount    int64       `bson:"statusesCount" json:"statusesCount"`
	FavouritesCount  int64       `bson:"favouritesCount" json:"favouritesCount"`
	ListedCount      int64       `bson:"listedCount" json:"listedCount"`
	MediaCount       int64       `bson:"mediaCount" json:"mediaCount"`
	Location         string      `bson:"location" json:"location"`
	Protected        bool        `bson:"protected" json:"protected"`
	LinkURL          string      `bson:"linkUrl" json:"linkUrl"`
	LinkTcoURL       string      `bson:"linkTcourl" json:"linkTcourl"`
	ProfileImageURL  string      `bson:"profileImageUrl" json:"profileImageUrl"`
	ProfileBannerURL string      `bson:"profileBannerUrl" json:"profileBannerUrl"`
	URL              string      `bson:"url" json:"url"`
}

// UserRank is one row of the top-users aggregation.
type UserRank struct {
	Username          string  `bson:"_id" json:"username"`
	Displayname       string  `bson:"displayname" json:"displayname"`
	MaxFollowersCount int64   `bson:"maxFollowersCount" json:"maxFollowersCount"`
	Full              UserDoc `bson:"full" json:"full"`
}
