package printer

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestParseWin32Printers(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    []Info
		wantErr bool
	}{
		{
			name: "array",
			out:  `[{"Name":"Fax","DriverName":"Microsoft Shared Fax Driver","Default":false,"PrinterStatus":3},{"Name":"Open PDF Studio","DriverName":"Microsoft Print To PDF","Default":true,"PrinterStatus":4}]`,
			want: []Info{
				{Name: "Fax", Driver: "Microsoft Shared Fax Driver", Status: "idle"},
				{Name: "Open PDF Studio", Driver: "Microsoft Print To PDF", IsDefault: true, Status: "printing"},
			},
		},
		{
			name: "single object",
			out:  "{\"Name\":\"Fax\",\"DriverName\":\"d\",\"Default\":true,\"PrinterStatus\":7}\r\n",
			want: []Info{{Name: "Fax", Driver: "d", IsDefault: true, Status: "offline"}},
		},
		{
			name: "unmapped status",
			out:  `[{"Name":"X","DriverName":"d","Default":false,"PrinterStatus":42}]`,
			want: []Info{{Name: "X", Driver: "d", Status: "unknown"}},
		},
		{name: "empty", out: "  \r\n", want: []Info{}},
		{name: "garbage", out: "Get-CimInstance : Access denied", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWin32Printers([]byte(tt.out))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseLpstat(t *testing.T) {
	out := `printer Office is idle.  enabled since Mon 06 Jan 2025 09:12:01 AM CET
printer Lab now printing Lab-12.  enabled since Mon 06 Jan 2025 09:15:44 AM CET
printer Old disabled since Fri 03 Jan 2025 05:00:00 PM CET -
	reason unknown
system default destination: Office
`
	require.Equal(t, []Info{
		{Name: "Office", IsDefault: true, Status: "idle"},
		{Name: "Lab", Status: "printing"},
		{Name: "Old", Status: "stopped"},
	}, parseLpstat([]byte(out)))

	require.Equal(t, []Info{}, parseLpstat([]byte("no system default destination\n")))
}

func TestListCUPS(t *testing.T) {
	l := New(DefaultConfig(), nil)
	l.GOOS = "linux"

	l.Exec = func(ctx context.Context, name string, arg ...string) ([]byte, error) {
		require.Equal(t, "lpstat", name)
		require.Equal(t, []string{"-p", "-d"}, arg)
		return []byte("printer b is idle.\nprinter a is idle.\nsystem default destination: b\n"), nil
	}
	infos, err := l.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Info{{Name: "a", Status: "idle"}, {Name: "b", IsDefault: true, Status: "idle"}}, infos)

	l.Exec = func(ctx context.Context, name string, arg ...string) ([]byte, error) {
		return []byte("lpstat: No destinations added.\n"), errors.New("exit status 1")
	}
	infos, err = l.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, infos)

	l.Exec = func(ctx context.Context, name string, arg ...string) ([]byte, error) {
		return nil, errors.New("exec: \"lpstat\": executable file not found in $PATH")
	}
	_, err = l.List(context.Background())
	require.Error(t, err)
}

func TestListWindows(t *testing.T) {
	l := New(DefaultConfig(), nil)
	l.GOOS = "windows"
	l.Exec = func(ctx context.Context, name string, arg ...string) ([]byte, error) {
		require.Equal(t, "powershell.exe", name)
		require.Equal(t, listScript, arg[len(arg)-1])
		return []byte(`{"Name":"Open PDF Studio","DriverName":"Microsoft Print To PDF","Default":false,"PrinterStatus":3}`), nil
	}
	infos, err := l.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "Microsoft Print To PDF", infos[0].Driver)
}

func TestPrint(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/docs/a b.pdf", []byte("%PDF-1.7"), 0o644))

	var gotName string
	var gotArgs []string
	l := New(DefaultConfig(), nil)
	l.Fs = fs
	l.Exec = func(ctx context.Context, name string, arg ...string) ([]byte, error) {
		gotName, gotArgs = name, arg
		return nil, nil
	}

	l.GOOS = "linux"
	require.NoError(t, l.Print(ctx, "/docs/a b.pdf", "Office"))
	require.Equal(t, "lp", gotName)
	require.Equal(t, []string{"-d", "Office", "--", "/docs/a b.pdf"}, gotArgs)

	require.NoError(t, l.Print(ctx, "/docs/a b.pdf", ""))
	require.Equal(t, []string{"--", "/docs/a b.pdf"}, gotArgs)

	l.GOOS = "windows"
	require.NoError(t, l.Print(ctx, "/docs/a b.pdf", "Bob's"))
	require.Equal(t, "powershell.exe", gotName)
	require.Equal(t, `Start-Process -FilePath '/docs/a b.pdf' -Verb PrintTo -ArgumentList '"Bob''s"' -WindowStyle Hidden`, gotArgs[len(gotArgs)-1])

	require.ErrorIs(t, l.Print(ctx, "/docs/missing.pdf", "Office"), ErrFileNotFound)
	require.Error(t, l.Print(ctx, "", "Office"))
}
