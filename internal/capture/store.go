package capture

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// FilePrefix and FileExt name capture files so the sweeper and outside
	// tooling can recognize them without reading contents.
	FilePrefix = "xctap_capture_"
	FileExt    = ".log"

	headerMagic = "# xctap capture"
)

// Header is the first line of every capture file. It keeps files
// self-describing after the in-memory session record is gone.
type Header struct {
	SessionID string
	Kind      string
	Target    string
	App       string
	Mode      string
	StartedAt time.Time
}

func (h Header) line() string {
	return fmt.Sprintf("%s session=%s kind=%s target=%s app=%s mode=%s started=%s\n",
		headerMagic, h.SessionID, h.Kind, h.Target, h.App, h.Mode,
		h.StartedAt.UTC().Format(time.RFC3339))
}

// ParseHeader reads session metadata out of a capture file's first line.
func ParseHeader(line string) (Header, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), headerMagic+" ")
	if !ok {
		return Header{}, false
	}
	var h Header
	for _, kv := range strings.Fields(rest) {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch key {
		case "session":
			h.SessionID = value
		case "kind":
			h.Kind = value
		case "target":
			h.Target = value
		case "app":
			h.App = value
		case "mode":
			h.Mode = value
		case "started":
			if ts, err := time.Parse(time.RFC3339, value); err == nil {
				h.StartedAt = ts
			}
		}
	}
	return h, h.SessionID != ""
}

// IsCaptureFile reports whether a file name follows the capture naming
// scheme.
func IsCaptureFile(name string) bool {
	return strings.HasPrefix(name, FilePrefix) && strings.HasSuffix(name, FileExt)
}

// FileInfo describes one capture file on disk.
type FileInfo struct {
	Path      string
	Size      int64
	ModTime   time.Time
	Header    Header
	HasHeader bool
}

// FileStore owns the capture directory layout. All sessions share one
// directory; per-session state lives in the file name and header.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir, defaulting to the system
// temp directory.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileStore{dir: dir}
}

// Dir returns the capture directory.
func (s *FileStore) Dir() string { return s.dir }

// PathFor returns the capture file path for a session id.
func (s *FileStore) PathFor(sessionID string) string {
	return filepath.Join(s.dir, FilePrefix+sessionID+FileExt)
}

// Create opens a fresh capture file and writes its header line. The caller
// owns the returned handle.
func (s *FileStore) Create(h Header) (*os.File, string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, "", &FileError{Op: "create", Path: s.dir, Err: err}
	}
	path := s.PathFor(h.SessionID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, "", &FileError{Op: "create", Path: path, Err: err}
	}
	if _, err := f.WriteString(h.line()); err != nil {
		f.Close()
		return nil, "", &FileError{Op: "create", Path: path, Err: err}
	}
	return f, path, nil
}

// ReadAll returns the full capture file contents, header line included.
func (s *FileStore) ReadAll(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// ReadHeader parses just the first line of a capture file.
func (s *FileStore) ReadHeader(path string) (Header, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		return Header{}, false
	}
	return ParseHeader(sc.Text())
}

// List returns capture files in the directory, newest first. A missing
// directory is an empty listing, not an error.
func (s *FileStore) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &FileError{Op: "read", Path: s.dir, Err: err}
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !IsCaptureFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		h, ok := s.ReadHeader(path)
		files = append(files, FileInfo{
			Path:      path,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Header:    h,
			HasHeader: ok,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}
