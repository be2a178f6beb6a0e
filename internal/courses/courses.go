// Package courses resolves course ids to the names and URLs codes point at.
package courses

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrNotFound is returned for unknown course ids.
var ErrNotFound = errors.New("course not found")

// Course is the part of a course record the renderer needs.
type Course struct {
	ID       int64
	FullName string
}

// Directory looks courses up by id.
type Directory interface {
	Course(ctx context.Context, id int64) (*Course, error)
}

// StaticDirectory serves a fixed set of courses, usually from configuration.
type StaticDirectory map[int64]string

func (s StaticDirectory) Course(_ context.Context, id int64) (*Course, error) {
	name, ok := s[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Course{ID: id, FullName: name}, nil
}

// CourseURL returns the course page address under wwwroot.
func CourseURL(wwwroot string, id int64) string {
	return strings.TrimRight(wwwroot, "/") + "/course/view.php?id=" + strconv.FormatInt(id, 10)
}

// NormalizeSiteURL validates a site root. It requires an http or https
// scheme and a host, defaults a missing scheme to https, and drops a
// trailing slash.
func NormalizeSiteURL(s string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", fmt.Errorf("site URL is required")
	}
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	u, err := url.ParseRequestURI(v)
	if err != nil {
		return "", fmt.Errorf("invalid site URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("only http and https site URLs are supported")
	}
	if u.Host == "" {
		return "", fmt.Errorf("site URL must include a valid host")
	}
	return strings.TrimRight(u.String(), "/"), nil
}

var _ Directory = StaticDirectory(nil)
