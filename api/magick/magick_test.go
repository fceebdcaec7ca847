package magick

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ka2n/getfavicon/api/favicon"
	"github.com/morikuni/failure/v2"
)

// writeScript creates an executable shell script standing in for an ImageMagick tool
func writeScript(t *testing.T, name string, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("Failed to write script %s: %v", name, err)
	}
	return path
}

func TestParseLayers(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []Layer
	}{
		{
			name: "Empty output",
			out:  "",
			want: nil,
		},
		{
			name: "Multiple layers",
			out:  "16 16 8\n32 32 32\n48 48 8\n",
			want: []Layer{
				{Index: 0, Width: 16, Height: 16, ColorDepth: 8},
				{Index: 1, Width: 32, Height: 32, ColorDepth: 32},
				{Index: 2, Width: 48, Height: 48, ColorDepth: 8},
			},
		},
		{
			name: "CRLF line endings",
			out:  "16 16 8\r\n32 32 8\r\n",
			want: []Layer{
				{Index: 0, Width: 16, Height: 16, ColorDepth: 8},
				{Index: 1, Width: 32, Height: 32, ColorDepth: 8},
			},
		},
		{
			name: "Malformed lines do not consume an index",
			out:  "garbage\n16 16 8\n1 2\n32 32 8\n",
			want: []Layer{
				{Index: 0, Width: 16, Height: 16, ColorDepth: 8},
				{Index: 1, Width: 32, Height: 32, ColorDepth: 8},
			},
		},
		{
			name: "Unterminated last line is ignored",
			out:  "16 16 8\n32 32 8",
			want: []Layer{
				{Index: 0, Width: 16, Height: 16, ColorDepth: 8},
			},
		},
		{
			name: "Overflowing number is skipped",
			out:  "99999999999999999999 16 8\n16 16 8\n",
			want: []Layer{
				{Index: 0, Width: 16, Height: 16, ColorDepth: 8},
			},
		},
	}

	inspector := NewInspector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inspector.parseLayers(tt.out)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseLayers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name   string
		layers []Layer
		size   int
		want   Layer
	}{
		{
			name: "Small layer beats larger ones",
			layers: []Layer{
				{Index: 0, Width: 32, Height: 32, ColorDepth: 8},
				{Index: 1, Width: 16, Height: 16, ColorDepth: 8},
				{Index: 2, Width: 64, Height: 64, ColorDepth: 8},
			},
			size: 16,
			want: Layer{Index: 1, Width: 16, Height: 16, ColorDepth: 8},
		},
		{
			name: "Largest when none fits",
			layers: []Layer{
				{Index: 0, Width: 32, Height: 32, ColorDepth: 8},
				{Index: 1, Width: 48, Height: 48, ColorDepth: 8},
			},
			size: 16,
			want: Layer{Index: 1, Width: 48, Height: 48, ColorDepth: 8},
		},
		{
			name: "Deeper color wins among same size",
			layers: []Layer{
				{Index: 0, Width: 16, Height: 16, ColorDepth: 4},
				{Index: 1, Width: 16, Height: 16, ColorDepth: 32},
			},
			size: 16,
			want: Layer{Index: 1, Width: 16, Height: 16, ColorDepth: 32},
		},
		{
			name: "Largest small layer",
			layers: []Layer{
				{Index: 0, Width: 8, Height: 8, ColorDepth: 32},
				{Index: 1, Width: 16, Height: 16, ColorDepth: 8},
				{Index: 2, Width: 24, Height: 24, ColorDepth: 32},
			},
			size: 16,
			want: Layer{Index: 1, Width: 16, Height: 16, ColorDepth: 8},
		},
		{
			name: "Ties keep the last layer",
			layers: []Layer{
				{Index: 0, Width: 16, Height: 16, ColorDepth: 8},
				{Index: 1, Width: 16, Height: 16, ColorDepth: 8},
				{Index: 2, Width: 32, Height: 32, ColorDepth: 8},
				{Index: 3, Width: 32, Height: 32, ColorDepth: 8},
			},
			size: 16,
			want: Layer{Index: 1, Width: 16, Height: 16, ColorDepth: 8},
		},
		{
			name: "Ties among large layers keep the last layer",
			layers: []Layer{
				{Index: 0, Width: 32, Height: 32, ColorDepth: 8},
				{Index: 1, Width: 32, Height: 32, ColorDepth: 8},
			},
			size: 16,
			want: Layer{Index: 1, Width: 32, Height: 32, ColorDepth: 8},
		},
		{
			name: "Mixed sizes pick the small deep layer",
			layers: []Layer{
				{Index: 0, Width: 32, Height: 32, ColorDepth: 8},
				{Index: 1, Width: 16, Height: 16, ColorDepth: 32},
				{Index: 2, Width: 64, Height: 64, ColorDepth: 8},
			},
			size: 16,
			want: Layer{Index: 1, Width: 16, Height: 16, ColorDepth: 32},
		},
		{
			name: "Only large layers pick the largest",
			layers: []Layer{
				{Index: 0, Width: 48, Height: 48, ColorDepth: 8},
				{Index: 1, Width: 64, Height: 64, ColorDepth: 8},
			},
			size: 16,
			want: Layer{Index: 1, Width: 64, Height: 64, ColorDepth: 8},
		},
		{
			name: "Larger target size",
			layers: []Layer{
				{Index: 0, Width: 16, Height: 16, ColorDepth: 8},
				{Index: 1, Width: 32, Height: 32, ColorDepth: 8},
				{Index: 2, Width: 64, Height: 64, ColorDepth: 8},
			},
			size: 32,
			want: Layer{Index: 1, Width: 32, Height: 32, ColorDepth: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectBest(tt.layers, tt.size)
			if err != nil {
				t.Fatalf("SelectBest() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SelectBest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectBest_NoLayers(t *testing.T) {
	_, err := SelectBest(nil, DefaultSize)
	if !failure.Is(err, favicon.ErrBadImage) {
		t.Errorf("Expected error %v, got %v", favicon.ErrBadImage, err)
	}
}

func TestInspector_Layers(t *testing.T) {
	identify := writeScript(t, "identify", `printf '32 32 8\n16 16 32\n'`)
	inspector := NewInspector(WithIdentifyCommand(identify))

	got, err := inspector.Layers(context.Background(), "favicon.ico")
	if err != nil {
		t.Fatalf("Layers() error = %v", err)
	}
	want := []Layer{
		{Index: 0, Width: 32, Height: 32, ColorDepth: 8},
		{Index: 1, Width: 16, Height: 16, ColorDepth: 32},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Layers() mismatch (-want +got):\n%s", diff)
	}
}

func TestInspector_Layers_AbnormalExitWithOutput(t *testing.T) {
	identify := writeScript(t, "identify", `printf '16 16 8\n'
echo "identify: corrupt image" >&2
exit 1`)
	inspector := NewInspector(WithIdentifyCommand(identify))

	got, err := inspector.Layers(context.Background(), "favicon.ico")
	if err != nil {
		t.Fatalf("Layers() error = %v", err)
	}
	want := []Layer{{Index: 0, Width: 16, Height: 16, ColorDepth: 8}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Layers() mismatch (-want +got):\n%s", diff)
	}
}

func TestInspector_Layers_Errors(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		missing  bool
		wantCode favicon.ErrorCode
	}{
		{
			name:     "identify rejects the file",
			script:   `echo "identify: no decode delegate" >&2; exit 1`,
			wantCode: favicon.ErrBadImage,
		},
		{
			name:     "Output is not text",
			script:   `printf '\377\376\n'`,
			wantCode: favicon.ErrBadImageFormat,
		},
		{
			name:     "identify is not installed",
			missing:  true,
			wantCode: favicon.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := filepath.Join(t.TempDir(), "no-such-identify")
			if !tt.missing {
				cmd = writeScript(t, "identify", tt.script)
			}
			inspector := NewInspector(WithIdentifyCommand(cmd))

			_, err := inspector.Layers(context.Background(), "favicon.ico")
			if !failure.Is(err, tt.wantCode) {
				t.Errorf("Expected error %v, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestInspector_Layers_Canceled(t *testing.T) {
	identify := writeScript(t, "identify", `sleep 5`)
	inspector := NewInspector(WithIdentifyCommand(identify))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inspector.Layers(ctx, "favicon.ico")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if failure.Is(err, favicon.ErrBadImage) {
		t.Errorf("Canceled identify must not be reported as %v: %v", favicon.ErrBadImage, err)
	}
}

func TestInspector_Convert(t *testing.T) {
	// the fake convert writes its arguments, one per line, to its last argument
	convert := writeScript(t, "convert", `for last; do :; done
printf '%s\n' "$@" > "$last"`)
	output := filepath.Join(t.TempDir(), "out.png")

	inspector := NewInspector(WithConvertCommand(convert), WithSize(32))
	if err := inspector.Convert(context.Background(), "/tmp/favicon-1.ico", 2, output); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	got := strings.Split(strings.TrimSpace(string(content)), "\n")
	want := []string{"/tmp/favicon-1.ico[2]", "-resize", "32x32>", output}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("convert arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestInspector_Convert_Failure(t *testing.T) {
	convert := writeScript(t, "convert", `echo "convert: unable to open image" >&2; exit 1`)
	inspector := NewInspector(WithConvertCommand(convert))

	err := inspector.Convert(context.Background(), "in.ico", 0, filepath.Join(t.TempDir(), "out.png"))
	if !failure.Is(err, favicon.ErrIO) {
		t.Errorf("Expected error %v, got %v", favicon.ErrIO, err)
	}
}

func TestNewInspector_Defaults(t *testing.T) {
	inspector := NewInspector(WithIdentifyCommand(""), WithConvertCommand(""), WithSize(0))

	if inspector.identifyCmd != DefaultIdentifyCommand {
		t.Errorf("Expected identify command %q, got %q", DefaultIdentifyCommand, inspector.identifyCmd)
	}
	if inspector.convertCmd != DefaultConvertCommand {
		t.Errorf("Expected convert command %q, got %q", DefaultConvertCommand, inspector.convertCmd)
	}
	if inspector.Size() != DefaultSize {
		t.Errorf("Expected size %d, got %d", DefaultSize, inspector.Size())
	}
}
