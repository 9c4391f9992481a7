// Command chesscomcheck fetches a player's profile and newest games from Chess.com.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/park285/chesscom-review/internal/chesscom"
	"github.com/park285/chesscom-review/internal/config"
	"github.com/park285/chesscom-review/internal/games"
	"github.com/park285/chesscom-review/internal/obslog"
	"github.com/park285/chesscom-review/pkg/reviewdto"
)

func main() {
	_ = godotenv.Load(".env")

	var (
		username string
		limit    int
	)
	cmd := &cobra.Command{
		Use:           "chesscomcheck",
		Short:         "Probe the Chess.com API for one player",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, username, limit)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Chess.com username (default TEST_USERNAME)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of games to list")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if kind := reviewdto.KindOf(err); kind != "" {
			fmt.Fprintf(os.Stderr, "kind=%s\n", kind)
		}
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, username string, limit int) error {
	if err := obslog.InitFromEnv(); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if username == "" {
		username = cfg.TestUsername
	}
	username = chesscom.NormalizeUsername(username)

	client := chesscom.NewClient(cfg.ChessComBaseURL,
		chesscom.WithTimeout(cfg.ChessComTimeout),
		chesscom.WithUserAgent(cfg.ChessComUserAgent),
		chesscom.WithLogger(obslog.L()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	profile := client.Profile(ctx, username)
	title, rating := "-", "unrated"
	if profile.Title != nil {
		title = *profile.Title
	}
	if profile.Rating != nil {
		rating = fmt.Sprint(*profile.Rating)
	}
	fmt.Fprintf(out, "profile: %s title=%s blitz=%s\n", profile.Username, title, rating)

	start := time.Now()
	raw, err := client.Games(ctx, username, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "games: %d in %s\n", len(raw), time.Since(start).Round(time.Millisecond))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDED\tWHITE\tBLACK\tCLASS\tOUTCOME")
	for _, g := range games.TransformAll(raw, username) {
		fmt.Fprintf(tw, "%s\t%s (%d)\t%s (%d)\t%s\t%s\n",
			g.End, g.White, g.WhiteRating, g.Black, g.BlackRating, g.TimeClass, g.Outcome)
	}
	return tw.Flush()
}
