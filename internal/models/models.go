package models

import "time"

// VideoRecord describes one discovered media file. The identifier is
// assigned once by the catalog and never reused, even after the backing
// file disappears; only the thumbnail and missing flags mutate.
type VideoRecord struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	DirPath      string    `json:"dir_path"`
	SizeBytes    int64     `json:"size_bytes"`
	DurationSecs float64   `json:"duration_seconds"`
	HasThumbnail bool      `json:"has_thumbnail"`
	Missing      bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Path returns the record's location relative to the media root.
func (v VideoRecord) Path() string {
	if v.DirPath == "" || v.DirPath == "." {
		return v.Filename
	}
	return v.DirPath + "/" + v.Filename
}

// Page is one window over an ordered sequence of videos, together with
// the parameters that produced it. Pages are recomputed per request and
// never persisted.
type Page struct {
	Videos  []VideoRecord `json:"videos"`
	Number  int           `json:"page"`
	Size    int           `json:"per_page"`
	Seed    string        `json:"seed,omitempty"`
	HasMore bool          `json:"has_more"`
}

// MarkEntry records a user marking a video (favorite or dislike).
// Unique per (user, video) within a set.
type MarkEntry struct {
	UserID    string    `json:"user_id"`
	VideoID   int64     `json:"video_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents an account able to log in. Admin users may trigger
// maintenance jobs.
type User struct {
	ID        string
	Username  string
	Password  string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
