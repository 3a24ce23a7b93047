package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "placedex",
		Usage: "Business listing sync and caching layer for the Places API",
		Commands: []*cli.Command{
			serveCommand(),
			searchCommand(),
			refreshCommand(),
			warmCommand(),
			exportCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
