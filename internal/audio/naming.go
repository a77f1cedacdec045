package audio

import (
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RandomName returns <unix-millis>-<uuid>, used for remote object names.
func RandomName(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()
}

// GroupID returns <unix-millis>_<uuid>, binding the files of one paired add.
func GroupID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + uuid.NewString()
}

// RemoteKey namespaces name under the session creation timestamp.
func RemoteKey(creationTimestamp, name string) string {
	return path.Join(creationTimestamp, name)
}
