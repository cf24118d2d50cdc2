package v4l2

import (
	"os"
	"sort"
	"strings"
)

// DevicePath - "0" or "video0" to "/dev/video0", other values as is
func DevicePath(s string) string {
	if s == "" {
		return "/dev/video0"
	}
	if strings.HasPrefix(s, "video") {
		return "/dev/" + s
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return s
		}
	}
	return "/dev/video" + s
}

// ListDevices - paths of all video device nodes
func ListDevices() ([]string, error) {
	files, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "video") {
			paths = append(paths, "/dev/"+file.Name())
		}
	}
	sort.Strings(paths)
	return paths, nil
}
