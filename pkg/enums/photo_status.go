package enums

import "fmt"

// PhotoStatus tracks an evaluation photo from presign to confirmed upload.
type PhotoStatus string

const (
	PhotoStatusPending  PhotoStatus = "pending"
	PhotoStatusUploaded PhotoStatus = "uploaded"
	PhotoStatusDeleted  PhotoStatus = "deleted"
)

var validPhotoStatuses = []PhotoStatus{
	PhotoStatusPending,
	PhotoStatusUploaded,
	PhotoStatusDeleted,
}

// String implements fmt.Stringer.
func (p PhotoStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PhotoStatus) IsValid() bool {
	for _, candidate := range validPhotoStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePhotoStatus converts raw input into a PhotoStatus.
func ParsePhotoStatus(value string) (PhotoStatus, error) {
	for _, candidate := range validPhotoStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid photo status %q", value)
}
