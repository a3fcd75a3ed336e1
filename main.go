package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/richardwooding/spurs-feed-mcp/cmd"
	"github.com/richardwooding/spurs-feed-mcp/model"
	"github.com/richardwooding/spurs-feed-mcp/version"
)

// CLI is the command line of spurs-feed-mcp.
type CLI struct {
	model.Globals

	Run cmd.RunCmd `cmd:"" help:"Run the MCP server for the Pounding The Rock feed."`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("spurs-feed-mcp"),
		kong.Description("MCP server answering San Antonio Spurs questions from the Pounding The Rock blog feed."),
		kong.UsageOnError(),
		kong.Vars{"version": version.GetFullVersion()},
		cmd.Vars(),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := CLI{}
	parser, err := newParser(&cli, kong.BindTo(ctx, (*context.Context)(nil)))
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cli.Logger = model.NewLogger()
	if err := kctx.Run(&cli.Globals); err != nil {
		model.LogFeedError(cli.Logger, model.AsFeedError(err))
		stop()
		os.Exit(1)
	}
}
