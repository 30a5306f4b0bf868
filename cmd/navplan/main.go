// Command navplan is the CLI front end for the route planning engine:
// it loads (or reloads) the aviation database, plans a route string
// against supplied cruise parameters, and prints the resulting leg
// table and any diagnostics. Grounded on mmp-vice's main.go
// flag-driven startup sequence (flag.Parse, logger init first, then
// the rest of the system), generalized from a GUI client's boot
// sequence to a one-shot CLI invocation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airnav/navcore/pkg/navcore/aviation"
	"github.com/airnav/navcore/pkg/navcore/config"
	"github.com/airnav/navcore/pkg/navcore/log"
	"github.com/airnav/navcore/pkg/navcore/service"
	"github.com/airnav/navcore/pkg/navcore/wind"
)

var (
	configPath  = flag.String("config", "", "path to navplan JSON config file (defaults to the user config dir)")
	logLevel    = flag.String("loglevel", "", "logging level: debug, info, warn, error (overrides config)")
	reindex     = flag.Bool("reindex", false, "re-merge the cached source bundles without fetching over the network, then exit")
	forceReload = flag.Bool("reload", false, "fetch fresh data from both sources even if a cached snapshot exists")

	route          = flag.String("route", "", "route string to plan, e.g. \"KJFK RBV Q430 AIR KORD\"")
	tas            = flag.Float64("tas", 120, "true airspeed in knots")
	altitude       = flag.Float64("altitude", 8000, "planned cruise altitude in feet")
	burnRateGPH    = flag.Float64("burn", 0, "fuel burn rate in gallons per hour (0 disables fuel planning)")
	usableFuelGal  = flag.Float64("fuel", 0, "usable fuel on board in gallons")
	taxiFuelGal    = flag.Float64("taxifuel", 0, "taxi fuel allowance in gallons")
	reserveMinutes = flag.Float64("reserve", 45, "required fuel reserve in minutes")
	applyWind      = flag.Bool("wind", false, "apply wind correction to headings and ground speed")
	checkTerrain   = flag.Bool("terrain", false, "check the planned altitude against MORA along the route")
	forecastPeriod = flag.String("forecast", string(wind.DefaultForecastPeriod), "winds-aloft forecast period to request: 06, 12, or 24")
)

func main() {
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = defaultConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "navplan: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	lg := log.New(false, cfg.LogLevel, cfg.LogDir)

	cache, err := aviation.OpenCache(cfg.CachePath)
	if err != nil {
		lg.Errorf("opening cache at %s: %v", cfg.CachePath, err)
		os.Exit(1)
	}
	defer cache.Close()

	repo := aviation.NewRepository(
		aviation.NewNASRSource(cfg.NASRBaseURL),
		aviation.NewOurAirportsSource(cfg.OurAirportsURL),
		aviation.NewMORASource(cfg.MORADataURL),
		cache,
		lg,
	)

	ctx := context.Background()

	progress := func(status string) { lg.Infof("load: %s", status) }

	switch {
	case *reindex:
		if err := repo.Reindex(ctx); err != nil {
			lg.Errorf("reindex: %v", err)
			os.Exit(1)
		}
		fmt.Println("reindex complete")
		return

	case *forceReload:
		if err := repo.Load(ctx, progress); err != nil {
			lg.Errorf("load: %v", err)
			os.Exit(1)
		}

	default:
		if err := repo.LoadFromCache(); err != nil {
			lg.Warnf("no usable cache (%v), loading from network", err)
			if err := repo.Load(ctx, progress); err != nil {
				lg.Errorf("load: %v", err)
				os.Exit(1)
			}
		} else if !repo.CacheValid(time.Now()) {
			lg.Infof("cached snapshot past its validity window, reloading from network")
			if err := repo.Load(ctx, progress); err != nil {
				lg.Errorf("load: %v", err)
				os.Exit(1)
			}
		}
	}

	if *route == "" {
		printStats(repo.Stats())
		return
	}

	svc := service.NewRouteService(repo, wind.ConstantProvider{}, nil)

	opts := service.PlanningOptions{
		TrueAirspeedKt:      *tas,
		AltitudeFt:          *altitude,
		Date:                time.Now(),
		BurnRateGPH:         *burnRateGPH,
		UsableFuelGal:       *usableFuelGal,
		TaxiFuelGal:         *taxiFuelGal,
		ReserveMinutes:      *reserveMinutes,
		ApplyWindCorrection: *applyWind,
		ApplyFuelPlanning:   *burnRateGPH > 0,
		ApplyTerrainCheck:   *checkTerrain,
		ForecastPeriod:      wind.ForecastPeriod(*forecastPeriod),
	}

	result, err := svc.Plan(ctx, *route, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "navplan: %v\n", err)
		os.Exit(1)
	}

	printPlan(result)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "navcore", "navplan.json")
}

func printStats(s aviation.Stats) {
	fmt.Printf("airports=%d navaids=%d fixes=%d airways=%d procedures=%d mora_cells=%d degraded=%v last_loaded=%s\n",
		s.Airports, s.Navaids, s.Fixes, s.Airways, s.Procedures, s.MORACells, s.AuthoritativeDegraded, s.LastLoaded.Format(time.RFC3339))
}

func printPlan(result service.Result) {
	for i, leg := range result.Plan.Legs {
		fmt.Printf("%2d. %-8s -> %-8s  %7.1f NM  TC %5.1f  MC %5.1f  HDG %5.1f  GS %5.1f  ETE %5.1f min  FUEL %5.1f gal\n",
			i+1, leg.From.Identifier, leg.To.Identifier, leg.DistanceNM,
			leg.TrueCourseDeg, leg.MagneticCourseDeg, leg.HeadingMagneticDeg,
			leg.GroundSpeedKt, leg.ETEMinutes, leg.FuelGal)
	}
	fmt.Printf("total: %.1f NM, %.1f min, %.1f gal\n", result.Plan.TotalDistanceNM, result.Plan.TotalETEMinutes, result.Plan.TotalFuelGal)
	if result.Plan.FuelInsufficient {
		fmt.Println("WARNING: planned fuel does not meet the required reserve")
	}
	if result.ClearanceVerdict != "" {
		fmt.Printf("terrain clearance: %s (max MORA %.0f ft)\n", result.ClearanceVerdict, result.TerrainAnalysis.MaxMORA)
	}
	for _, d := range result.Diagnostics.All() {
		fmt.Fprintln(os.Stderr, d.String())
	}
}
