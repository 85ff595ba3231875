package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/chromedash/chromedash/pkg/common"
	"github.com/chromedash/chromedash/pkg/page"
	"github.com/chromedash/chromedash/pkg/types"
	"github.com/chromedash/chromedash/pkg/widgets"
)

const (
	browsePrompt  = "› "
	maxRenderRows = 25
	settleMargin  = 100 * time.Millisecond
)

var browseHelp = []string{
	"<text>              search names and summaries, or field=value",
	":clear              clear the search",
	":version <v>        show a milestone or status",
	":category <v>       filter by category",
	":owner <v>          filter by owner",
	":component <v>      filter by component",
	":open <id>          scroll to a feature",
	":back               go back to the previous feature",
	":star [id]          star a feature, default the open one",
	":unstar [id]        remove a star",
	":subscribe          toggle notifications about new features",
	":legend             toggle the status legend",
	":versions           list milestones and statuses",
	":quit               leave",
}

// ErrUnknownCommand is returned for a colon command the browser does not know.
var ErrUnknownCommand = errors.New("unknown command, try :help")

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Browser drives a page from text commands and renders its widgets.
type Browser struct {
	page  *page.Page
	c     page.Components
	stars Starrer
	out   io.Writer

	done chan error
}

func NewBrowser(b *Backend, hash string, out io.Writer, opts ...page.Option) *Browser {
	w := &syncWriter{w: out}
	notify := func(msg string) {
		PrintWarning(w, msg)
	}

	c := page.NewComponents(b.Features, b.Versions, hash, notify)
	opts = append([]page.Option{page.WithViews(b.Views)}, opts...)

	return &Browser{
		page:  page.New(c, b.Services, opts...),
		c:     c,
		stars: b.Stars,
		out:   w,
		done:  make(chan error, 1),
	}
}

// Start runs the page until ctx is done and loads the catalog into it.
func (b *Browser) Start(ctx context.Context) error {
	go func() {
		b.done <- b.page.Run(ctx)
	}()

	select {
	case <-b.page.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := b.c.Metadata.Load(ctx); err != nil {
		return fmt.Errorf("load versions: %w", err)
	}
	if err := b.c.FeatureList.Load(ctx); err != nil {
		return fmt.Errorf("load features: %w", err)
	}

	// A deep link only fills the search box, run it as if it was typed
	if v := b.c.Search.Value(); v != "" {
		b.c.Search.Type(v)
	}
	return nil
}

// Wait blocks until the page stopped.
func (b *Browser) Wait() error {
	return <-b.done
}

// Components exposes the widgets, mostly for rendering and tests.
func (b *Browser) Components() page.Components {
	return b.c
}

// Handle applies one line of input. It returns true when the user quits.
func (b *Browser) Handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		b.c.Search.Type(line)
		return false, nil
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "quit", "q":
		return true, nil
	case "help", "h":
		for _, h := range browseHelp {
			fmt.Fprintf(b.out, "  %s\n", DimStyle.Render(h))
		}
	case "clear":
		b.c.Search.Clear()
	case "version":
		if arg == "" {
			return false, fmt.Errorf(":version needs a milestone or status")
		}
		b.c.Metadata.Select(arg)
	case "category", "owner", "component":
		if arg == "" {
			return false, fmt.Errorf(":%s needs a value", cmd)
		}
		b.clickFilter(cmd, arg)
	case "open":
		id, err := parseFeatureID(arg)
		if err != nil {
			return false, err
		}
		if !b.c.FeatureList.ScrollToID(id) {
			return false, fmt.Errorf("feature %d is not in the list", id)
		}
		b.c.Location.Push(&widgets.HistoryState{ID: id})
	case "back":
		if !b.c.Location.Back() {
			return false, fmt.Errorf("no previous feature")
		}
	case "star", "unstar":
		return false, b.setStar(ctx, arg, cmd == "star")
	case "subscribe":
		if b.c.SubscribeButton.Hidden() {
			return false, fmt.Errorf("notifications are not available, sign in first")
		}
		b.c.SubscribeButton.Click()
	case "legend":
		b.c.LegendButton.Click()
	case "versions":
		b.renderVersions()
	default:
		return false, ErrUnknownCommand
	}
	return false, nil
}

func (b *Browser) clickFilter(field, val string) {
	switch field {
	case "category":
		b.c.FeatureList.ClickCategory(val)
	case "owner":
		b.c.FeatureList.ClickOwner(val)
	case "component":
		b.c.FeatureList.ClickComponent(val)
	}
}

func (b *Browser) setStar(ctx context.Context, arg string, starred bool) error {
	if b.stars == nil {
		return fmt.Errorf("sign in to star features")
	}

	var id int64
	if arg == "" {
		id = b.c.FeatureList.ScrolledTo()
		if id == 0 {
			return fmt.Errorf("open a feature first or pass an id")
		}
	} else {
		var err error
		if id, err = parseFeatureID(arg); err != nil {
			return err
		}
	}

	if err := b.stars.SetStar(ctx, id, starred); err != nil {
		return err
	}
	ids, err := b.stars.GetStars(ctx)
	if err != nil {
		return err
	}
	b.c.FeatureList.SetStarredFeatures(ids)
	return nil
}

func parseFeatureID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid feature id %q", arg)
	}
	return id, nil
}

// Render prints the current state of the page.
func (b *Browser) Render() {
	c := b.c
	if c.Body.Loading() {
		fmt.Fprintf(b.out, "  %s\n", DimStyle.Render("loading..."))
		return
	}

	status := []string{fmt.Sprintf("%s features", c.Counter.Text())}
	if q := c.FeatureList.Query(); q != "" {
		status = append(status, "search "+CodeStyle.Render(q))
	}
	if v := c.Metadata.Selected(); v != "" {
		status = append(status, "version "+CodeStyle.Render(v))
	}
	if n := c.FeatureList.StarredCount(); n > 0 {
		status = append(status, fmt.Sprintf("%s %d", StarStyle.Render(SymbolStar), n))
	}
	if !c.SubscribeButton.Hidden() && c.SubscribeButton.Icon() == page.IconNotifications {
		status = append(status, SymbolBell)
	}
	fmt.Fprintf(b.out, "\n  %s\n\n", strings.Join(status, DimStyle.Render("  ·  ")))

	visible := c.FeatureList.Visible()
	shown := visible
	if len(shown) > maxRenderRows {
		shown = shown[:maxRenderRows]
	}
	FeatureTable(shown, c.FeatureList.IsStarred).Fprint(b.out)
	if more := len(visible) - len(shown); more > 0 {
		fmt.Fprintf(b.out, "  %s\n", HintStyle.Render(fmt.Sprintf("... %d more, narrow the search", more)))
	}

	if id := c.FeatureList.ScrolledTo(); id != 0 {
		if f, ok := c.FeatureList.Feature(id); ok {
			b.renderFeature(f)
		}
	}

	if c.Legend.Opened() {
		var lines []string
		for _, v := range c.Legend.Views() {
			lines = append(lines, BoldStyle.Render(v.Title)+"  "+DimStyle.Render(v.Description))
		}
		fmt.Fprintln(b.out, LegendBoxStyle.Render(strings.Join(lines, "\n")))
	}
}

func (b *Browser) renderFeature(f *types.Feature) {
	fmt.Fprintf(b.out, "\n  %s %s\n", InfoStyle.Render(SymbolInfo), BoldStyle.Render(f.Name))
	if f.Summary != "" {
		fmt.Fprintf(b.out, "    %s\n", f.Summary)
	}
	if f.Component != "" {
		fmt.Fprintf(b.out, "    %s %s\n", DimStyle.Render("component"), f.Component)
	}
	if len(f.Owners) > 0 {
		fmt.Fprintf(b.out, "    %s %s\n", DimStyle.Render("owners"), strings.Join(f.Owners, ", "))
	}
}

func (b *Browser) renderVersions() {
	t := NewTable("VERSION", "FEATURES")
	for _, v := range b.c.Metadata.Versions() {
		t.AddRow(v.Value, strconv.Itoa(v.Count))
	}
	t.Fprint(b.out)
}

// Run reads commands from in until it is exhausted, the user quits or ctx is
// done. settle is how long to let the page react before rendering.
func (b *Browser) Run(ctx context.Context, in io.Reader, settle time.Duration) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	b.Render()
	for {
		fmt.Fprint(b.out, browsePrompt)

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := b.Handle(ctx, line)
			if quit {
				return nil
			}
			if err != nil {
				fmt.Fprintf(b.out, "  %s %s\n", ErrorStyle.Render(SymbolError), FormatError(err))
				continue
			}
			time.Sleep(settle)
			b.Render()
		}
	}
}

var (
	browseLocal      string
	browseEmail      string
	browsePermission string
	browseHash       string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse features interactively",
	Long: `Browse the catalog interactively. Every line you type is a search;
lines starting with a colon are commands, see :help.

With --local the catalog is read from a JSON or YAML file and nothing is
sent to a gateway.`,
	Example: `  chromedash browse
  chromedash browse --hash "milestone=113"
  chromedash browse --local features.yaml --email dev@chromium.org`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseLocal, "local", "", "Catalog file to browse without a gateway")
	browseCmd.Flags().StringVar(&browseEmail, "email", "", "User for stars and subscriptions in local mode")
	browseCmd.Flags().StringVar(&browsePermission, "permission", string(types.PermissionDefault), "Notification permission: granted, denied or default")
	browseCmd.Flags().StringVar(&browseHash, "hash", "", "Initial search, as in a #deep link")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	permission := types.NotificationPermission(browsePermission)
	if !permission.Valid() {
		return fmt.Errorf("invalid permission %q", browsePermission)
	}

	debounce := common.DefaultDebounceDelay
	if cm, err := common.NewConfigManager[types.AppConfig](); err != nil {
		log.Debug().Err(err).Msg("using default search debounce")
	} else if d := cm.GetConfig().Page.SearchDebounce; d > 0 {
		debounce = d
	}

	var backend *Backend
	var err error
	if browseLocal != "" {
		email := browseEmail
		if email == "" {
			email = LoadCredentials().Email
		}
		backend, err = LocalBackend(ctx, browseLocal, email, permission)
	} else {
		c, cerr := getClient()
		if cerr != nil {
			return cerr
		}
		if herr := c.Health(ctx); herr != nil {
			PrintConnectionError(gatewayAddr, herr)
			return herr
		}
		backend, err = RemoteBackend(ctx, c, permission)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	b := NewBrowser(backend, browseHash, out, page.WithSearchDebounce(debounce))
	if err := b.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s  %s\n", BrandStyle.Render("chromedash"), HintStyle.Render("type to search, :help for commands"))
	err = b.Run(ctx, cmd.InOrStdin(), debounce+settleMargin)

	cancel()
	if werr := b.Wait(); werr != nil {
		return werr
	}
	return err
}
