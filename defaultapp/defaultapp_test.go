package defaultapp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRegistry map[string]string

func (f fakeRegistry) ReadString(root Root, path string, name string) (string, error) {
	v, ok := f[key(root, path, name)]
	if !ok {
		return "", errors.New("the system cannot find the file specified")
	}
	return v, nil
}

func key(root Root, path, name string) string {
	return fmt.Sprintf("%d:%s:%s", root, path, name)
}

func TestIsDefaultPDFApp(t *testing.T) {
	exe := `C:\Program Files\Viewer\viewer.exe`
	commandKey := func(progID string) string {
		return key(ClassesRoot, progID+`\shell\open\command`, "")
	}

	tests := []struct {
		name string
		reg  Registry
		want bool
	}{
		{name: "no registry", reg: nil, want: false},
		{name: "no user choice", reg: fakeRegistry{}, want: false},
		{
			name: "prog id names us",
			reg:  fakeRegistry{key(CurrentUser, userChoiceKey, "ProgId"): "OpenPDFStudio.pdf"},
			want: true,
		},
		{
			name: "open command names us",
			reg: fakeRegistry{
				key(CurrentUser, userChoiceKey, "ProgId"): "Applications\\x.exe",
				commandKey("Applications\\x.exe"):         `"C:\Apps\OpenPDFStudio\x.exe" "%1"`,
			},
			want: true,
		},
		{
			name: "open command is our executable",
			reg: fakeRegistry{
				key(CurrentUser, userChoiceKey, "ProgId"): "AppX123",
				commandKey("AppX123"):                     `"C:\PROGRAM FILES\VIEWER\VIEWER.EXE" "%1"`,
			},
			want: true,
		},
		{
			name: "someone else",
			reg: fakeRegistry{
				key(CurrentUser, userChoiceKey, "ProgId"): "AcroExch.Document.DC",
				commandKey("AcroExch.Document.DC"):        `"C:\Program Files\Adobe\Acrobat.exe" "%1"`,
			},
			want: false,
		},
		{
			name: "prog id without command",
			reg:  fakeRegistry{key(CurrentUser, userChoiceKey, "ProgId"): "AcroExch.Document.DC"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Checker{
				Registry:   tt.reg,
				Executable: func() (string, error) { return exe, nil },
			}
			require.Equal(t, tt.want, c.IsDefaultPDFApp())
		})
	}
}

func TestOpenSettings(t *testing.T) {
	var got []string
	c := &Checker{
		Registry: fakeRegistry{},
		Exec: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			got = append([]string{name}, arg...)
			return nil, nil
		},
	}
	ok, err := c.OpenSettings(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"cmd", "/c", "start", "ms-settings:defaultapps"}, got)

	c.Registry = nil
	ok, err = c.OpenSettings(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenURL(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		url     string
		want    []string
		wantErr bool
	}{
		{name: "linux https", goos: "linux", url: "https://example.com/docs?a=1&b=2", want: []string{"xdg-open", "https://example.com/docs?a=1&b=2"}},
		{name: "darwin mailto", goos: "darwin", url: "mailto:support@example.com", want: []string{"open", "mailto:support@example.com"}},
		{name: "windows keeps ampersands in one argument", goos: "windows", url: "https://example.com/?a=1&b=2", want: []string{"rundll32", "url.dll,FileProtocolHandler", "https://example.com/?a=1&b=2"}},
		{name: "file scheme refused", goos: "linux", url: "file:///etc/passwd", wantErr: true},
		{name: "script scheme refused", goos: "windows", url: "javascript:alert(1)", wantErr: true},
		{name: "relative path refused", goos: "linux", url: "notes.pdf", wantErr: true},
		{name: "missing host refused", goos: "linux", url: "https:///path", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			c := &Checker{
				GOOS: tt.goos,
				Exec: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
					got = append([]string{name}, arg...)
					return nil, nil
				},
			}
			err := c.OpenURL(context.Background(), tt.url)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedURL)
				require.Nil(t, got, "nothing may be launched")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOpenURLLauncherFailure(t *testing.T) {
	c := &Checker{
		GOOS: "linux",
		Exec: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			return []byte("xdg-open: no method available\n"), errors.New("exit status 3")
		},
	}
	err := c.OpenURL(context.Background(), "https://example.com")
	require.ErrorContains(t, err, "no method available")
}
