package favicon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/morikuni/failure/v2"
)

func TestFavicon_Suffix(t *testing.T) {
	tests := []struct {
		name string
		fav  Favicon
		want string
	}{
		{
			name: "Filename extension",
			fav:  Favicon{Filename: "logo.png"},
			want: ".png",
		},
		{
			name: "Filename extension is case insensitive",
			fav:  Favicon{Filename: "FAVICON.GIF"},
			want: ".gif",
		},
		{
			name: "jpeg becomes jpg",
			fav:  Favicon{Filename: "icon.jpeg"},
			want: ".jpg",
		},
		{
			name: "Filename wins over content type",
			fav:  Favicon{Filename: "icon.ico", ContentType: "image/png"},
			want: ".ico",
		},
		{
			name: "Content type when filename is unknown",
			fav:  Favicon{Filename: "icon", ContentType: "image/png"},
			want: ".png",
		},
		{
			name: "Microsoft icon content type",
			fav:  Favicon{ContentType: "image/vnd.microsoft.icon"},
			want: ".ico",
		},
		{
			name: "jpeg content type",
			fav:  Favicon{ContentType: "image/jpeg"},
			want: ".jpg",
		},
		{
			name: "Unknown content type",
			fav:  Favicon{Filename: "icon.svg", ContentType: "image/svg+xml"},
			want: DefaultSuffix,
		},
		{
			name: "Nothing known",
			want: DefaultSuffix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fav.Suffix(); got != tt.want {
				t.Errorf("Suffix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFavicon_SaveTemporary(t *testing.T) {
	dir := t.TempDir()
	fav := &Favicon{Filename: "favicon.png", Content: []byte("not really a png")}

	tmp, err := fav.SaveTemporary(dir)
	if err != nil {
		t.Fatalf("SaveTemporary() error = %v", err)
	}

	if got := filepath.Dir(tmp.Path()); got != dir {
		t.Errorf("Expected file in %q, got %q", dir, got)
	}
	base := filepath.Base(tmp.Path())
	if !strings.HasPrefix(base, "favicon-") || !strings.HasSuffix(base, ".png") {
		t.Errorf("Unexpected temporary file name %q", base)
	}

	content, err := os.ReadFile(tmp.Path())
	if err != nil {
		t.Fatalf("Failed to read temporary file: %v", err)
	}
	if diff := cmp.Diff(fav.Content, content); diff != "" {
		t.Errorf("Content mismatch (-want +got):\n%s", diff)
	}

	if err := tmp.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(tmp.Path()); !os.IsNotExist(err) {
		t.Errorf("Expected temporary file to be removed, stat error = %v", err)
	}

	// a second remove is a no-op
	if err := tmp.Remove(); err != nil {
		t.Errorf("Second Remove() error = %v", err)
	}
}

func TestFavicon_SaveTemporary_DistinctFiles(t *testing.T) {
	dir := t.TempDir()
	fav := &Favicon{Content: []byte{0, 0, 1, 0}}

	a, err := fav.SaveTemporary(dir)
	if err != nil {
		t.Fatalf("SaveTemporary() error = %v", err)
	}
	defer a.Remove()
	b, err := fav.SaveTemporary(dir)
	if err != nil {
		t.Fatalf("SaveTemporary() error = %v", err)
	}
	defer b.Remove()

	if a.Path() == b.Path() {
		t.Errorf("Expected distinct paths, both were %q", a.Path())
	}
}

func TestFavicon_SaveTemporary_MissingDir(t *testing.T) {
	fav := &Favicon{Content: []byte("x")}

	_, err := fav.SaveTemporary(filepath.Join(t.TempDir(), "missing"))
	if !failure.Is(err, ErrIO) {
		t.Errorf("Expected error %v, got %v", ErrIO, err)
	}
}
