package models

import "time"

// ImageRecord is a hero image as the admin API reports it
type ImageRecord struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// StoredImage is the server's manifest entry for one uploaded hero image
type StoredImage struct {
	ID          string    `json:"id" yaml:"id"`
	Object      string    `json:"object" yaml:"object"`
	URL         string    `json:"url" yaml:"url"`
	Alt         string    `json:"alt,omitempty" yaml:"alt,omitempty"`
	ContentType string    `json:"content_type" yaml:"content_type"`
	Size        int64     `json:"size" yaml:"size"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Record strips the storage details from a manifest entry
func (s StoredImage) Record() ImageRecord {
	return ImageRecord{ID: s.ID, URL: s.URL, Alt: s.Alt}
}

// Envelope wraps every admin API response
type Envelope struct {
	Success bool          `json:"success"`
	Images  []ImageRecord `json:"images,omitempty"`
	Image   *ImageRecord  `json:"image,omitempty"`
	Error   string        `json:"error,omitempty"`
}
