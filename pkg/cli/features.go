package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chromedash/chromedash/pkg/types"
)

var featuresCmd = &cobra.Command{
	Use:   "features [query]",
	Short: "List features, optionally filtered",
	Long: `List the feature catalog. The query is free text matched against names
and summaries, or a field filter such as milestone=113, category:CSS,
component=Blink>DOM or browsers.chrome.status:"In development".`,
	Example: `  chromedash features
  chromedash features "milestone=113"
  chromedash features popover`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}
		ctx := context.Background()

		var features []*types.Feature
		var stars []int64
		err = RunSpinnerWithResult("Loading features...", func() error {
			features, err = c.SearchFeatures(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			// Stars are best effort, anonymous users have none
			if c.Authenticated() {
				stars, _ = c.GetStars(ctx)
			}
			return nil
		})
		if err != nil {
			return err
		}

		if PrintJSON(features) {
			return nil
		}
		if len(features) == 0 {
			PrintInfo("No features match")
			return nil
		}

		fmt.Println()
		FeatureTable(features, func(id int64) bool { return slices.Contains(stars, id) }).Print()
		PrintHint(fmt.Sprintf("%d features", len(features)))
		return nil
	},
}

var starsCmd = &cobra.Command{
	Use:   "stars",
	Short: "List your starred features",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}
		ctx := context.Background()

		var starred []*types.Feature
		err = RunSpinnerWithResult("Loading stars...", func() error {
			ids, err := c.GetStars(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				f, err := c.GetFeature(ctx, id)
				if err != nil {
					// Starred features may have been removed from the catalog
					continue
				}
				starred = append(starred, f)
			}
			return nil
		})
		if err != nil {
			return err
		}

		if PrintJSON(starred) {
			return nil
		}
		if len(starred) == 0 {
			PrintInfo("No starred features")
			PrintHint("Star one with: chromedash star <id>")
			return nil
		}

		fmt.Println()
		FeatureTable(starred, func(int64) bool { return true }).Print()
		return nil
	},
}

var starCmd = &cobra.Command{
	Use:   "star <id>",
	Short: "Star a feature",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStar(args[0], true)
	},
}

var unstarCmd = &cobra.Command{
	Use:   "unstar <id>",
	Short: "Remove a star",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStar(args[0], false)
	},
}

func setStar(arg string, starred bool) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid feature id %q", arg)
	}

	c, err := getClient()
	if err != nil {
		return err
	}
	if err := c.SetStar(context.Background(), id, starred); err != nil {
		return err
	}

	if starred {
		PrintSuccessf("Starred feature %d", id)
	} else {
		PrintSuccessf("Unstarred feature %d", id)
	}
	return nil
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe [topic]",
	Short: "Subscribe to notifications",
	Long: fmt.Sprintf(`Subscribe to a notification topic. Without a topic you are notified
about every new feature (topic %q). A feature id subscribes to
updates of that feature.`, types.AllFeaturesTopic),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSubscription(args, true)
	},
}

var unsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe [topic]",
	Short: "Unsubscribe from notifications",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSubscription(args, false)
	},
}

func setSubscription(args []string, subscribe bool) error {
	topic := types.AllFeaturesTopic
	if len(args) == 1 {
		topic = args[0]
	}

	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if subscribe {
		err = c.Subscribe(ctx, topic)
	} else {
		err = c.Unsubscribe(ctx, topic)
	}
	if err != nil {
		return err
	}

	topics, err := c.ListSubscriptions(ctx)
	if err != nil {
		return err
	}
	if PrintJSON(topics) {
		return nil
	}

	if subscribe {
		PrintSuccessf("Subscribed to %s", topic)
	} else {
		PrintSuccessf("Unsubscribed from %s", topic)
	}
	if len(topics) > 0 {
		fmt.Fprintln(os.Stdout)
		PrintKeyValue("Topics", strings.Join(topics, ", "))
	}
	return nil
}
