// internal/domain/download/entity.go
package download

import (
	"errors"
	"strings"
	"time"
)

const Collection = "downloads"

var ErrInvalidDownload = errors.New("download: invalid")

// Download is one logged image download.
type Download struct {
	UserID       string    `json:"userId" firestore:"userId"`
	UserEmail    string    `json:"userEmail" firestore:"userEmail"`
	UserName     string    `json:"userName" firestore:"userName"`
	ImageID      string    `json:"imageId" firestore:"imageId"`
	ImageName    string    `json:"imageName" firestore:"imageName"`
	ImageURL     string    `json:"imageUrl" firestore:"imageUrl"`
	DownloadDate time.Time `json:"downloadDate" firestore:"downloadDate"`
}

func (d Download) Validate() error {
	if strings.TrimSpace(d.UserID) == "" || strings.TrimSpace(d.ImageID) == "" || d.DownloadDate.IsZero() {
		return ErrInvalidDownload
	}
	return nil
}
