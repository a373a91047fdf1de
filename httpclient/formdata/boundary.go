package formdata

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// boundaryPrefix keeps generated tokens recognizable in captured traffic.
var boundaryPrefix = strings.Repeat("-", 24)

// NewBoundary returns a boundary token made of a random part and the current
// time in milliseconds. It stays within the 70 characters allowed by RFC 2046.
func NewBoundary() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return boundaryPrefix + random + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// ContentType returns the Content-Type header value for a body encoded with boundary.
func ContentType(boundary string) string {
	return "multipart/form-data; boundary=" + boundary
}
