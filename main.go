// Package main provides the entry point for the OpenScaler application.
package main

import (
	"log"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"openscaler/internal/app"
	"openscaler/internal/version"
	"openscaler/ui/mainwindow"
	"openscaler/ui/prefs"
)

const appTitle = "OpenScaler"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s %s", appTitle, version.Version)

	fyneApp := fyneapp.NewWithID("org.openscaler.app")
	fyneApp.Settings().SetTheme(&app.ScalerTheme{})

	appState := app.NewState()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, appState, appPrefs)

	// A project path on the command line opens it directly.
	if len(os.Args) > 1 {
		win.OpenProject(os.Args[1])
	}

	win.Show()
	fyneApp.Run()
}
