package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/decker502/stonecrush/pkg/app"
	"github.com/decker502/stonecrush/pkg/embedded"
	"github.com/gdamore/tcell/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/urfave/cli/v3"
)

// commonFlags 两个前端共用的参数
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "board",
			Value: app.DefaultBoardConfigPath,
			Usage: "board config (data/... reads the embedded copy)",
		},
		&cli.StringFlag{
			Name:    "script",
			Aliases: []string{"s"},
			Value:   "data/scripts/demo.yaml",
			Usage:   "move script to replay, empty to disable",
		},
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"l"},
			Usage:   "serve a websocket event feed on this address, e.g. :8080",
		},
		&cli.FloatFlag{
			Name:  "speed",
			Usage: "animation speed multiplier (0.25 - 4), overrides saved settings",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable verbose logging",
		},
		&cli.BoolFlag{
			Name:  "no-sound",
			Usage: "disable phase sound cues",
		},
	}
}

func sessionConfig(cmd *cli.Command) app.Config {
	return app.Config{
		Verbose:     cmd.Bool("verbose"),
		BoardConfig: cmd.String("board"),
		Script:      cmd.String("script"),
		Listen:      cmd.String("listen"),
		Speed:       cmd.Float("speed"),
		NoSound:     cmd.Bool("no-sound"),
	}
}

func main() {
	// 初始化嵌入资源
	embedded.Init(assetsFS, dataFS)

	root := &cli.Command{
		Name:  "stonecrush",
		Usage: "replay stone board moves as animations",
		Commands: []*cli.Command{
			{
				Name:   "window",
				Usage:  "play in a window (default)",
				Flags:  commonFlags(),
				Action: runWindow,
			},
			{
				Name:   "term",
				Usage:  "play in the terminal",
				Flags:  commonFlags(),
				Action: runTerminal,
			},
		},
		Flags:  commonFlags(),
		Action: runWindow,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWindow(ctx context.Context, cmd *cli.Command) error {
	session, err := app.NewSession(sessionConfig(cmd))
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := session.Serve(ctx)

	gameApp, err := app.NewApp(session)
	if err != nil {
		return fmt.Errorf("初始化失败: %w", err)
	}

	w, h := session.Board.ScreenSize()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Stone Crush")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(gameApp); err != nil {
		return err
	}
	gameApp.GetSceneManager().SaveOnExit()

	cancel()
	if err := <-errc; err != nil {
		log.Printf("[Main] websocket: %v", err)
	}
	return nil
}

func runTerminal(ctx context.Context, cmd *cli.Command) error {
	session, err := app.NewSession(sessionConfig(cmd))
	if err != nil {
		return err
	}
	defer session.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := session.Serve(ctx)

	loop, err := session.NewTerminalLoop(screen)
	if err != nil {
		return err
	}
	if err := loop.Run(ctx); err != nil {
		return err
	}

	cancel()
	if err := <-errc; err != nil {
		log.Printf("[Main] websocket: %v", err)
	}
	return nil
}
