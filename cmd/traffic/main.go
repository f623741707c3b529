// Command traffic manages the saved-location list from the terminal:
// adding, listing and removing destinations, toggling traffic monitoring,
// and refreshing travel times on demand.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"traffic/internal/env"
	"traffic/internal/store"
	"traffic/internal/travel"
	"traffic/models"
	"traffic/pkg/alert"
	"traffic/pkg/geocode"
	"traffic/pkg/graceful"
	"traffic/pkg/position"
	"traffic/pkg/routing"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: traffic <command> [flags]

commands:
  add      save a location (-name, and -address or -lat/-lon; -monitor to watch it)
  list     print saved locations with their last known travel info
  remove   delete a location by -name
  monitor  toggle traffic monitoring for -name (-off to stop watching)
  refresh  recompute travel times for every saved location from here`)
	os.Exit(2)
}

func main() {
	env.LoadEnv()
	if len(os.Args) < 2 {
		usage()
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	st := openStore()

	var err error
	switch os.Args[1] {
	case "add":
		err = runAdd(ctx, st, os.Args[2:])
	case "list":
		err = runList(ctx, st)
	case "remove":
		err = runRemove(ctx, st, os.Args[2:])
	case "monitor":
		err = runMonitor(ctx, st, os.Args[2:])
	case "refresh":
		err = runRefresh(ctx, st)
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func openStore() store.Store {
	if os.Getenv("MINIO_ENDPOINT") != "" {
		s, err := store.NewS3Store(context.Background(), env.GetEnvDefault("LOCATIONS_BUCKET", "traffic-locations"))
		if err != nil {
			log.Fatalf("Failed to connect to the locations bucket: %v", err)
		}
		return s
	}
	dir := os.Getenv("DATA_DIR")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			log.Fatalf("Cannot determine a data directory, set DATA_DIR: %v", err)
		}
		dir = filepath.Join(base, "traffic")
	}
	s, err := store.NewFileStore(dir)
	if err != nil {
		log.Fatalf("Failed to open the location store: %v", err)
	}
	return s
}

func currentPosition(ctx context.Context) (models.Coordinates, bool) {
	lookupURL := os.Getenv("POSITION_URL")
	if lookupURL == "" {
		return models.Coordinates{}, false
	}
	tracker := position.NewTracker(position.NewClient(lookupURL))
	pos, err := tracker.Current(ctx)
	if err != nil {
		log.Printf("Current location unavailable: %v", err)
		return models.Coordinates{}, false
	}
	return pos, true
}

func runAdd(ctx context.Context, st store.Store, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "display name for the location")
	address := fs.String("address", "", "street address (geocoded when coordinates are omitted)")
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	monitored := fs.Bool("monitor", false, "watch this location for traffic delays")
	_ = fs.Parse(args)

	if *name == "" {
		return errors.New("-name is required")
	}

	loc := &models.Location{Name: *name, Address: *address, Monitored: *monitored}
	if *lat != 0 || *lon != 0 {
		loc.Position = &models.Coordinates{Lat: *lat, Lon: *lon}
	}

	// Fill in whichever of address/position is missing. The current
	// position disambiguates between same-named places.
	ref, _ := currentPosition(ctx)
	resolver := travel.NewResolver(geocode.NewClient(os.Getenv("GEOCODE_URL")))
	if !resolver.Resolve(ctx, loc, ref) {
		return fmt.Errorf("could not resolve %q, give an -address or -lat/-lon", *name)
	}

	locations, err := st.Load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range locations {
		if existing.Name == loc.Name {
			return fmt.Errorf("location %q already exists", loc.Name)
		}
	}
	locations = append(locations, loc)
	if err := st.Save(ctx, locations); err != nil {
		return err
	}

	fmt.Printf("Saved %q (%s)\n", loc.Name, loc.Address)
	return nil
}

func runList(ctx context.Context, st store.Store) error {
	locations, err := st.Load(ctx)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		fmt.Println("No saved locations.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tTRAFFIC\tNO TRAFFIC\tMILES\tMONITORED\tUPDATED")
	for _, loc := range locations {
		updated := "never"
		withTraffic, withoutTraffic, miles := "-", "-", "-"
		if !loc.NeverUpdated() {
			updated = loc.Timestamp.Local().Format("Jan 2 15:04")
			withTraffic = fmt.Sprintf("%d min", loc.TravelTimeWithTraffic)
			withoutTraffic = fmt.Sprintf("%d min", loc.TravelTimeWithoutTraffic)
			miles = fmt.Sprintf("%.1f", loc.TravelDistance)
		}
		monitored := ""
		if loc.Monitored {
			monitored = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			loc.Name, loc.Address, withTraffic, withoutTraffic, miles, monitored, updated)
	}
	return w.Flush()
}

func runRemove(ctx context.Context, st store.Store, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	name := fs.String("name", "", "location to delete")
	_ = fs.Parse(args)

	if *name == "" {
		return errors.New("-name is required")
	}

	locations, err := st.Load(ctx)
	if err != nil {
		return err
	}
	kept := locations[:0]
	for _, loc := range locations {
		if loc.Name != *name {
			kept = append(kept, loc)
		}
	}
	if len(kept) == len(locations) {
		return fmt.Errorf("no location named %q", *name)
	}
	if err := st.Save(ctx, kept); err != nil {
		return err
	}

	fmt.Printf("Removed %q\n", *name)
	return nil
}

func runMonitor(ctx context.Context, st store.Store, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	name := fs.String("name", "", "location to toggle")
	off := fs.Bool("off", false, "stop monitoring instead of starting")
	_ = fs.Parse(args)

	if *name == "" {
		return errors.New("-name is required")
	}

	locations, err := st.Load(ctx)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		if loc.Name != *name {
			continue
		}
		loc.Monitored = !*off
		if err := st.Save(ctx, locations); err != nil {
			return err
		}
		state := "monitored"
		if *off {
			state = "no longer monitored"
		}
		fmt.Printf("%q is now %s\n", *name, state)
		return nil
	}
	return fmt.Errorf("no location named %q", *name)
}

func runRefresh(ctx context.Context, st store.Store) error {
	locations, err := st.Load(ctx)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		fmt.Println("No saved locations.")
		return nil
	}

	origin, ok := currentPosition(ctx)
	if !ok {
		return errors.New("current location unavailable, set POSITION_URL")
	}

	router := routing.NewClient(env.MustGetEnv("ROUTING_URL"))
	updater := travel.NewUpdater(router, alert.LogNotifier{})

	err = updater.Update(ctx, origin, locations)
	if errors.Is(err, travel.ErrServiceUnavailable) {
		// Degraded connectivity: show what we have, don't retry.
		fmt.Println("Traffic info is currently unavailable for some locations.")
	} else if err != nil {
		return err
	}

	if err := st.Save(ctx, locations); err != nil {
		return err
	}
	return runList(ctx, st)
}
