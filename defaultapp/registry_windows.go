//go:build windows
// +build windows

package defaultapp

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

type winRegistry struct{}

func platformRegistry() Registry {
	return winRegistry{}
}

func (winRegistry) ReadString(root Root, path string, name string) (string, error) {
	var k registry.Key
	switch root {
	case CurrentUser:
		k = registry.CURRENT_USER
	case ClassesRoot:
		k = registry.CLASSES_ROOT
	default:
		return "", fmt.Errorf("unknown registry root %d", root)
	}
	key, err := registry.OpenKey(k, path, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("failed to open registry key %s: %w", path, err)
	}
	defer key.Close()
	val, _, err := key.GetStringValue(name)
	if err != nil {
		return "", fmt.Errorf("failed to read registry value %s\\%s: %w", path, name, err)
	}
	return val, nil
}
