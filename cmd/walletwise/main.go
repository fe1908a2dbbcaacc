package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/walletwise/internal/commands"
	"github.com/lox/walletwise/internal/db"
	"github.com/lox/walletwise/internal/display"
)

type CLI struct {
	commands.CommonConfig

	Plain bool `help:"Disable colored output"`

	Pay        PayCmd        `cmd:"" help:"Pay a UPI ID through an installed UPI app"`
	Scan       ScanCmd       `cmd:"" help:"Pay using the contents of a UPI QR code"`
	OpenURL    OpenURLCmd    `cmd:"" name:"open-url" help:"Hand a URL to the running walletwise process (scheme handler)"`
	History    HistoryCmd    `cmd:"" help:"Show recent payments"`
	Summary    SummaryCmd    `cmd:"" help:"Show spending by category and month"`
	Search     SearchCmd     `cmd:"" help:"Semantic search over payments"`
	Chat       ChatCmd       `cmd:"" help:"Chat with the spending assistant"`
	Insights   InsightsCmd   `cmd:"" help:"Ask the assistant to analyze recent spending"`
	Embeddings EmbeddingsCmd `cmd:"" help:"Manage search embeddings"`
}

// app holds what every subcommand needs
type app struct {
	logger   *log.Logger
	db       *db.DB
	timezone *time.Location
	renderer *display.Renderer
	console  *console // only set by interactive commands
	dataDir  string
}

func newApp(cli *CLI) (*app, error) {
	logger, err := commands.SetupLogger(os.Stderr, cli.LogLevel)
	if err != nil {
		return nil, err
	}
	database, loc, err := commands.SetupStore(cli.CommonConfig, logger)
	if err != nil {
		return nil, err
	}

	theme := display.DefaultTheme()
	if cli.Plain {
		theme = display.PlainTheme()
	}

	return &app{
		logger:   logger,
		db:       database,
		timezone: loc,
		renderer: display.NewRenderer(os.Stdout, theme, loc),
		dataDir:  cli.DataDir,
	}, nil
}

// inboxDir is where the scheme handler spools the URLs the app is opened with
func inboxDir(dataDir string) string {
	return filepath.Join(dataDir, "inbox")
}

func (a *app) Close() error {
	return a.db.Close()
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("walletwise"),
		kong.Description("Pay with UPI and keep track of where the money goes"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.config/walletwise/config.json", "walletwise.json"),
	)

	if err := ctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
