package gui

import (
	"io/fs"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

// Run 以无边框的启动画面窗口运行应用，阻塞直到应用退出
func Run(app *App, assets fs.FS) error {
	return wails.Run(&options.App{
		Title:            "siteshell",
		Width:            480,
		Height:           320,
		Frameless:        true,
		DisableResize:    true,
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.Startup,
		OnShutdown: app.Shutdown,
		Bind: []interface{}{
			app,
		},
	})
}
