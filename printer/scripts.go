package printer

import (
	"strings"

	"github.com/openpdfstudio/pdfhelper/elevate"
)

var q = elevate.QuotePS

func installScript(cfg Config) string {
	return strings.Join([]string{
		"try { Remove-Printer -Name " + q(cfg.Name) + " -ErrorAction Stop } catch { }",
		"Add-Printer -Name " + q(cfg.Name) + " -DriverName " + q(cfg.Driver) + " -PortName " + q(cfg.Port),
	}, "\n")
}

func removeScript(cfg Config) string {
	lines := []string{
		"if (Get-Printer -Name " + q(cfg.Name) + " -ErrorAction SilentlyContinue) {",
		"    Remove-Printer -Name " + q(cfg.Name),
		"}",
	}
	if cfg.LegacyPortPattern != "" {
		lines = append(lines,
			"Get-PrinterPort -ErrorAction SilentlyContinue | Where-Object { $_.Name -like "+q(cfg.LegacyPortPattern)+" } | ForEach-Object {",
			"    Remove-PrinterPort -Name $_.Name -ErrorAction SilentlyContinue",
			"}",
		)
	}
	return strings.Join(lines, "\n")
}

func queryScript(cfg Config) string {
	return "Get-Printer -Name " + q(cfg.Name) + " -ErrorAction SilentlyContinue | Select-Object -ExpandProperty Name"
}

const listScript = "@(Get-CimInstance -ClassName Win32_Printer | Select-Object Name,DriverName,Default,PrinterStatus) | ConvertTo-Json -Compress"

func printScript(path, printerName string) string {
	if printerName == "" {
		return "Start-Process -FilePath " + q(path) + " -Verb Print -WindowStyle Hidden"
	}
	return "Start-Process -FilePath " + q(path) + " -Verb PrintTo -ArgumentList " + q(`"`+printerName+`"`) + " -WindowStyle Hidden"
}
