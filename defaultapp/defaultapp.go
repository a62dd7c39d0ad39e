// Package defaultapp answers whether the viewer is the user's default
// handler for .pdf files and opens links with the default browser.
package defaultapp

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/openpdfstudio/pdfhelper/elevate"
)

type Root int

const (
	CurrentUser Root = iota
	ClassesRoot
)

const (
	userChoiceKey = `Software\Microsoft\Windows\CurrentVersion\Explorer\FileExts\.pdf\UserChoice`
	appMarker     = "openpdfstudio"
)

// Registry reads string values. An empty name reads the key's default value.
type Registry interface {
	ReadString(root Root, path string, name string) (string, error)
}

type Checker struct {
	// Registry is nil where there is no registry; nothing is ever default.
	Registry   Registry
	Executable func() (string, error)
	Exec       elevate.CmdExecutor
	// GOOS selects the URL opener. Defaults to runtime.GOOS.
	GOOS string
}

func NewChecker() *Checker {
	return &Checker{
		Registry:   platformRegistry(),
		Executable: os.Executable,
		Exec:       elevate.DefaultCmdExecutor,
		GOOS:       runtime.GOOS,
	}
}

// IsDefaultPDFApp follows the .pdf UserChoice ProgId to its open command
// and checks that it points at us. Any lookup failure means false.
func (c *Checker) IsDefaultPDFApp() bool {
	if c.Registry == nil {
		return false
	}
	progID, err := c.Registry.ReadString(CurrentUser, userChoiceKey, "ProgId")
	if err != nil || strings.TrimSpace(progID) == "" {
		return false
	}
	if strings.Contains(strings.ToLower(progID), appMarker) {
		return true
	}

	command, err := c.Registry.ReadString(ClassesRoot, progID+`\shell\open\command`, "")
	if err != nil {
		return false
	}
	command = strings.ToLower(command)
	if strings.Contains(command, appMarker) {
		return true
	}
	if c.Executable == nil {
		return false
	}
	exe, err := c.Executable()
	if err != nil || exe == "" {
		return false
	}
	return strings.Contains(command, strings.ToLower(exe))
}

// OpenSettings opens the OS page where the user picks default apps. It
// returns false without error where no such page exists.
func (c *Checker) OpenSettings(ctx context.Context) (bool, error) {
	if c.Registry == nil {
		return false, nil
	}
	run := c.Exec
	if run == nil {
		run = elevate.DefaultCmdExecutor
	}
	if _, err := run(ctx, "cmd", "/c", "start", "ms-settings:defaultapps"); err != nil {
		return false, err
	}
	return true, nil
}
