package model

// Notification is one rendered announcement of a pending image update
type Notification struct {
	Title        string
	Description  string
	Color        int
	URL          *string
	ThumbnailURL string
}

// Batch is an ordered group of notifications sent in a single sink call
type Batch []*Notification
