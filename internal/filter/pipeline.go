package filter

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/vburojevic/xctap/internal/capture"
)

// Pipeline applies pattern, exclude, and where filters to capture files, in
// that order. Pattern and excludes run against the file's base name (which
// carries the session id); where clauses inspect the parsed header.
type Pipeline struct {
	pattern  *regexp.Regexp
	excludes []*regexp.Regexp
	where    *WhereFilter
}

// NewPipeline builds a pipeline from the individual filters. Returns nil
// when no filter is set; a nil pipeline matches everything.
func NewPipeline(pattern *regexp.Regexp, excludes []*regexp.Regexp, where *WhereFilter) *Pipeline {
	if pattern == nil && len(excludes) == 0 && where == nil {
		return nil
	}
	return &Pipeline{pattern: pattern, excludes: excludes, where: where}
}

// Match reports whether the capture file passes every stage.
func (p *Pipeline) Match(info capture.FileInfo, now time.Time) bool {
	if p == nil {
		return true
	}

	name := filepath.Base(info.Path)
	if p.pattern != nil && !p.pattern.MatchString(name) {
		return false
	}
	for _, ex := range p.excludes {
		if ex.MatchString(name) {
			return false
		}
	}
	if p.where != nil && !p.where.Match(info, now) {
		return false
	}
	return true
}
