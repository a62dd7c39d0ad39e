package printer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Info describes one printer known to the OS spooler.
type Info struct {
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	IsDefault bool   `json:"is_default"`
	Status    string `json:"status"`
}

// List returns the printers known to the spooler, sorted by name.
func (l *Lifecycle) List(ctx context.Context) ([]Info, error) {
	var (
		infos []Info
		err   error
	)
	if l.windows() {
		var out []byte
		out, err = l.powershell(ctx, listScript)
		if err != nil {
			return nil, fmt.Errorf("failed to list printers: %w", err)
		}
		infos, err = parseWin32Printers(out)
	} else {
		infos, err = l.listCUPS(ctx)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (l *Lifecycle) listCUPS(ctx context.Context) ([]Info, error) {
	out, err := l.executor()(ctx, "lpstat", "-p", "-d")
	if err != nil {
		if bytes.Contains(out, []byte("No destinations")) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	return parseLpstat(out), nil
}

var win32Status = map[int]string{
	1: "other",
	2: "unknown",
	3: "idle",
	4: "printing",
	5: "warmup",
	6: "stopped",
	7: "offline",
}

type win32Printer struct {
	Name          string `json:"Name"`
	DriverName    string `json:"DriverName"`
	Default       bool   `json:"Default"`
	PrinterStatus int    `json:"PrinterStatus"`
}

// parseWin32Printers accepts ConvertTo-Json output, which is a bare object
// rather than an array when exactly one printer exists.
func parseWin32Printers(out []byte) ([]Info, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return []Info{}, nil
	}
	var printers []win32Printer
	if out[0] == '{' {
		var p win32Printer
		if err := json.Unmarshal(out, &p); err != nil {
			return nil, fmt.Errorf("failed to parse printer list: %w", err)
		}
		printers = []win32Printer{p}
	} else if err := json.Unmarshal(out, &printers); err != nil {
		return nil, fmt.Errorf("failed to parse printer list: %w", err)
	}

	infos := make([]Info, 0, len(printers))
	for _, p := range printers {
		status, ok := win32Status[p.PrinterStatus]
		if !ok {
			status = "unknown"
		}
		infos = append(infos, Info{
			Name:      p.Name,
			Driver:    p.DriverName,
			IsDefault: p.Default,
			Status:    status,
		})
	}
	return infos, nil
}

// parseLpstat reads `lpstat -p -d` output. CUPS does not report the driver.
//
//	printer Office is idle.  enabled since ...
//	printer Lab now printing Lab-12.  enabled since ...
//	printer Old disabled since ... -
//	system default destination: Office
func parseLpstat(out []byte) []Info {
	infos := []Info{}
	var def string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "system default destination:"); ok {
			def = strings.TrimSpace(rest)
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "printer" {
			continue
		}
		status := "unknown"
		switch {
		case strings.Contains(line, " is idle"):
			status = "idle"
		case strings.Contains(line, " now printing"):
			status = "printing"
		case strings.Contains(line, " disabled"):
			status = "stopped"
		}
		infos = append(infos, Info{Name: fields[1], Status: status})
	}
	for i := range infos {
		infos[i].IsDefault = infos[i].Name == def
	}
	return infos
}
