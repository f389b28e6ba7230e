package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/smartnotes/internal"
	pkgconfig "github.com/starford/smartnotes/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	write := func(w io.Writer) error {
		return internal.Export(ctx, cmd.String("format"), w,
			internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	}
	out := cmd.String("out")
	if out == "" || out == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := writeAndClose(f, write); err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("export to %s: %w", out, err)
	}
	return nil
}

// writeAndClose runs write against wc and closes it, reporting the close
// error when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	err := write(wc)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return err
}

func importBackup(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var r io.Reader = os.Stdin
	if in := cmd.String("in"); in != "" && in != "-" {
		f, err := os.Open(in)
		if err != nil {
			return fmt.Errorf("open %s: %w", in, err)
		}
		defer f.Close()
		r = f
	}
	sum, err := internal.Import(ctx, cmd.String("mode"), r,
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "imported %d/%d notes, %d/%d labels\n",
		sum.NotesAdded, sum.NotesReceived, sum.LabelsAdded, sum.LabelsReceived)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "smartnotes",
		Usage:  "Rich-text notes with labels, search and backups over HTTP and MCP",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:   "export",
				Usage:  "Write a backup of all notes and labels",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json, markdown or csv"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "Output file, - for stdout"},
				},
			},
			{
				Name:   "import",
				Usage:  "Apply a JSON backup",
				Action: importBackup,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "merge", Usage: "merge or replace"},
					&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Value: "-", Usage: "Input file, - for stdin"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
