package favicon

import (
	"os"
	"strings"

	"github.com/morikuni/failure/v2"
)

// Favicon is a downloaded icon resource.
type Favicon struct {
	// Filename is the last path segment of the icon URL. Empty for data: URLs
	// and for URLs without a usable path.
	Filename string
	// ContentType is the media type reported for the resource, without parameters.
	// Empty when absent or unparsable.
	ContentType string
	// Content is the raw resource body.
	Content []byte
}

// DefaultSuffix is used for staging files when neither filename nor content type is recognised.
const DefaultSuffix = ".ico"

const mediaTypeICO = "image/vnd.microsoft.icon"

var filenameSuffixes = []struct {
	exts   []string
	suffix string
}{
	{[]string{".ico"}, ".ico"},
	{[]string{".jpg", ".jpeg"}, ".jpg"},
	{[]string{".png"}, ".png"},
	{[]string{".gif"}, ".gif"},
}

var mediaTypeSuffixes = map[string]string{
	mediaTypeICO: ".ico",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Suffix returns the file extension used when staging the favicon on disk.
// The filename extension takes precedence over the content type.
func (f *Favicon) Suffix() string {
	if f.Filename != "" {
		lower := strings.ToLower(f.Filename)
		for _, s := range filenameSuffixes {
			for _, ext := range s.exts {
				if strings.HasSuffix(lower, ext) {
					return s.suffix
				}
			}
		}
	}
	if suffix, ok := mediaTypeSuffixes[f.ContentType]; ok {
		return suffix
	}
	return DefaultSuffix
}

// TempFile is a staging copy of a favicon on disk.
type TempFile struct {
	path string
}

// Path returns the location of the staged file.
func (t *TempFile) Path() string {
	return t.path
}

// Remove deletes the staged file. It is safe to call more than once.
func (t *TempFile) Remove() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return failure.Wrap(err, failure.WithCode(ErrIO),
			failure.Message("Failed to remove temporary file"),
			failure.Context{"context": "remove " + t.path})
	}
	return nil
}

// SaveTemporary writes the favicon content to a new file in dir, or in the
// default temporary directory when dir is empty. The file name is
// favicon-<random><suffix>. Callers must Remove the returned file.
func (f *Favicon) SaveTemporary(dir string) (*TempFile, error) {
	file, err := os.CreateTemp(dir, "favicon-*"+f.Suffix())
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrIO),
			failure.Message("Failed to create temporary file"),
			failure.Context{"context": "create temporary file"})
	}
	tmp := &TempFile{path: file.Name()}

	if _, err := file.Write(f.Content); err != nil {
		file.Close()
		tmp.Remove()
		return nil, failure.Wrap(err, failure.WithCode(ErrIO),
			failure.Message("Failed to write temporary file"),
			failure.Context{"context": "write " + tmp.path})
	}
	if err := file.Close(); err != nil {
		tmp.Remove()
		return nil, failure.Wrap(err, failure.WithCode(ErrIO),
			failure.Message("Failed to write temporary file"),
			failure.Context{"context": "close " + tmp.path})
	}
	return tmp, nil
}
