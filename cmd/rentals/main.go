package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/CyberPidgi/rentiful/internal/client"
	"github.com/CyberPidgi/rentiful/internal/compose"
	"github.com/CyberPidgi/rentiful/internal/config"
	"github.com/CyberPidgi/rentiful/internal/filters"
	"github.com/CyberPidgi/rentiful/internal/models"
	"github.com/CyberPidgi/rentiful/internal/view"
)

// exampleQuery is shown in the -query help text
const exampleQuery = "location=Austin&priceMin=1000&priceMax=2500"

type browser struct {
	store    *filters.Store
	urls     *filters.URLSync
	latest   *client.LatestSearch
	renderer *view.Renderer
	viewer   view.Viewer
	toggle   *view.FavoriteToggle
}

func main() {
	configPath := flag.String("config", "config/rentiful.yaml", "Path to config file")
	token := flag.String("token", os.Getenv("RENTIFUL_TOKEN"), "Bearer token")
	tenantID := flag.String("tenant", "", "Cognito id of the signed-in tenant")
	mode := flag.String("view", string(filters.ViewGrid), "Layout: grid or list")
	query := flag.String("query", "", "Filter query string, e.g. "+exampleQuery)
	toggleID := flag.Uint("toggle", 0, "Toggle the favorite state of a listing before browsing")
	interactive := flag.Bool("i", false, "Read commands from stdin")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	cfg.ApplyEnv()

	api := client.New(cfg.Client, *token)
	ctx := context.Background()

	store := filters.NewStore(filters.Default())
	base := strings.TrimRight(cfg.Client.BaseURL, "/")
	urls := filters.NewURLSync(store, filters.NavigatorFunc(func(rawQuery string) error {
		log.Printf("[Browse] url=%s/search?%s", base, rawQuery)
		return nil
	}), cfg.Client.GetDebounce())
	defer urls.Stop()

	if _, err := urls.Restore(*query); err != nil {
		log.Fatalf("Invalid query %q: %v", *query, err)
	}
	store.SetViewMode(filters.ViewMode(*mode))

	b := &browser{
		store:    store,
		urls:     urls,
		latest:   client.NewLatestSearch(api),
		renderer: view.NewRenderer(int(os.Stdout.Fd())),
	}
	if *tenantID != "" {
		b.viewer = view.Viewer{CognitoID: *tenantID, Role: models.RoleTenant}
		tenant, err := api.GetTenant(ctx, *tenantID)
		if err != nil {
			log.Fatalf("Failed to load tenant %s: %v", *tenantID, err)
		}
		b.toggle = view.NewFavoriteToggle(api, *tenantID, tenant.FavoriteIDs)
	}

	if *toggleID > 0 {
		if err := b.favorite(ctx, uint(*toggleID)); err != nil {
			log.Fatalf("Favorite failed: %v", err)
		}
	}

	if err := b.show(ctx); err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	if !*interactive {
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		quit, err := b.command(ctx, strings.Fields(scanner.Text()))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		if quit {
			break
		}
	}
	urls.Flush()
}

// command runs one interactive command and reports whether to quit
func (b *browser) command(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "q", "quit", "exit":
		return true, nil
	case "grid", "list":
		b.store.SetViewMode(filters.ViewMode(args[0]))
		return false, b.show(ctx)
	case "reset":
		b.store.SetFilters(filters.Default())
		return false, b.show(ctx)
	case "set":
		if len(args) != 2 {
			return false, errors.New("usage: set key=value")
		}
		if err := b.set(args[1]); err != nil {
			return false, err
		}
		return false, b.show(ctx)
	case "fav":
		if len(args) != 2 {
			return false, errors.New("usage: fav <id>")
		}
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil || id == 0 {
			return false, fmt.Errorf("invalid listing id %q", args[1])
		}
		if err := b.favorite(ctx, uint(id)); err != nil {
			return false, err
		}
		return false, b.show(ctx)
	case "url":
		b.urls.Flush()
		fmt.Println("?" + filters.Canonical(b.store.Filters()))
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q (set, reset, grid, list, fav, url, quit)", args[0])
	}
}

// set changes one query parameter of the current filters. An empty value
// clears it.
func (b *browser) set(pair string) error {
	key, value, ok := strings.Cut(pair, "=")
	if !ok || key == "" {
		return errors.New("usage: set key=value")
	}
	values := filters.Encode(b.store.Filters())
	if value == "" {
		values.Del(key)
	} else {
		values.Set(key, value)
	}
	next, err := filters.Decode(values)
	if err != nil {
		return err
	}
	b.store.SetFilters(next)
	return nil
}

func (b *browser) favorite(ctx context.Context, id uint) error {
	if b.toggle == nil {
		return errors.New("favorites need -tenant")
	}
	fav, err := b.toggle.Toggle(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("listing #%d favorite=%v\n", id, fav)
	return nil
}

func (b *browser) show(ctx context.Context) error {
	listings, _, err := b.latest.Search(ctx, b.store.Filters())
	if errors.Is(err, client.ErrSuperseded) {
		return nil
	}
	if err != nil {
		return err
	}
	if b.toggle != nil {
		b.toggle.Apply(listings)
	} else {
		clearFavorites(listings)
	}
	return b.renderer.Render(os.Stdout, listings, b.store.State().ViewMode, b.viewer)
}

func clearFavorites(listings []compose.Listing) {
	for i := range listings {
		listings[i].IsFavorite = nil
	}
}
