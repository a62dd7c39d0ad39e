//go:build !windows
// +build !windows

package defaultapp

func platformRegistry() Registry {
	return nil
}
