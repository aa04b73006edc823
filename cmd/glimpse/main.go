// Command glimpse generates grid worlds and runs ecosystem simulations on
// them.
package main

import (
	"log/slog"
	"os"

	"github.com/integrii/flaggy"

	"github.com/anyweez/glimpse/internal/config"
)

// options holds command-line values. Zero values leave the configuration
// untouched.
type options struct {
	configPath string
	verbose    bool
	jsonLogs   bool

	size        int
	seed        int64
	elevation   string
	cycles      int
	populations int
	noSunshine  bool

	worldFile string
	worldID   string
	database  string
	image     string
	outDir    string
	scale     int
	heatmap   bool
}

var (
	generateCmd *flaggy.Subcommand
	simulateCmd *flaggy.Subcommand
	renderCmd   *flaggy.Subcommand
	worldsCmd   *flaggy.Subcommand
)

func main() {
	opts := parseFlags()
	setupLogging(opts)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid options", "error", err)
		os.Exit(1)
	}

	switch {
	case generateCmd.Used:
		err = runGenerate(cfg, opts)
	case simulateCmd.Used:
		err = runSimulate(cfg, opts)
	case renderCmd.Used:
		err = runRender(cfg, opts)
	case worldsCmd.Used:
		err = runWorlds(cfg)
	default:
		flaggy.ShowHelpAndExit("a subcommand is required")
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() *options {
	opts := &options{}

	flaggy.SetName("glimpse")
	flaggy.SetDescription("Procedural grid worlds and the populations living on them")
	flaggy.DefaultParser.ShowHelpOnUnexpected = true
	flaggy.String(&opts.configPath, "c", "config", "YAML file overriding the embedded defaults")
	flaggy.Bool(&opts.verbose, "v", "verbose", "Log at debug level")
	flaggy.Bool(&opts.jsonLogs, "", "json", "Write logs as JSON")

	generateCmd = flaggy.NewSubcommand("generate")
	generateCmd.Description = "Generate a world and save it"
	worldFlags(generateCmd, opts)
	outputFlags(generateCmd, opts)
	generateCmd.String(&opts.worldFile, "o", "out", "World file to write")

	simulateCmd = flaggy.NewSubcommand("simulate")
	simulateCmd.Description = "Run the ecosystem on a generated or stored world"
	worldFlags(simulateCmd, opts)
	outputFlags(simulateCmd, opts)
	simulateCmd.String(&opts.worldFile, "w", "world", "Simulate on this world file instead of generating one")
	simulateCmd.String(&opts.worldID, "", "world-id", "Simulate on a world from the database")
	simulateCmd.Int(&opts.cycles, "n", "cycles", "Number of cycles to run")
	simulateCmd.Int(&opts.populations, "p", "populations", "Default populations to spawn")
	simulateCmd.Bool(&opts.noSunshine, "", "no-sunshine", "Do not place renewable energy on every cell")
	simulateCmd.String(&opts.outDir, "o", "out", "Directory for cycles.csv and config.yaml")

	renderCmd = flaggy.NewSubcommand("render")
	renderCmd.Description = "Render a world file as a PNG"
	renderCmd.String(&opts.worldFile, "w", "world", "World file to read")
	renderCmd.String(&opts.image, "i", "image", "PNG file to write")
	renderCmd.Int(&opts.scale, "", "scale", "Pixels per cell")
	renderCmd.Bool(&opts.heatmap, "", "heatmap", "Color cells by elevation instead of terrain")

	worldsCmd = flaggy.NewSubcommand("worlds")
	worldsCmd.Description = "List worlds stored in the database"
	worldsCmd.String(&opts.database, "d", "db", "SQLite world store")

	flaggy.AttachSubcommand(generateCmd, 1)
	flaggy.AttachSubcommand(simulateCmd, 1)
	flaggy.AttachSubcommand(renderCmd, 1)
	flaggy.AttachSubcommand(worldsCmd, 1)
	flaggy.Parse()

	return opts
}

func worldFlags(sc *flaggy.Subcommand, opts *options) {
	sc.Int(&opts.size, "s", "size", "World size exponent, dim = 2^size+1")
	sc.Int64(&opts.seed, "", "seed", "World seed (0 = random)")
	sc.String(&opts.elevation, "e", "elevation", "Elevation method [fractal|simplex]")
}

func outputFlags(sc *flaggy.Subcommand, opts *options) {
	sc.String(&opts.database, "d", "db", "SQLite world store")
	sc.String(&opts.image, "i", "image", "PNG file to write")
	sc.Int(&opts.scale, "", "scale", "Pixels per cell")
	sc.Bool(&opts.heatmap, "", "heatmap", "Color cells by elevation instead of terrain")
}

func setupLogging(opts *options) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	if opts.jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

// apply copies explicitly set flags over the loaded configuration.
func (o *options) apply(cfg *config.Config) {
	if o.size != 0 {
		cfg.World.Size = o.size
	}
	if o.seed != 0 {
		cfg.World.Seed = o.seed
	}
	if o.elevation != "" {
		cfg.World.Elevation = o.elevation
	}
	if o.cycles != 0 {
		cfg.Simulation.Cycles = o.cycles
	}
	if o.populations != 0 {
		cfg.Ecosystem.InitialPopulations = o.populations
	}
	if o.noSunshine {
		cfg.Ecosystem.Sunshine = false
	}
	if o.worldFile != "" {
		cfg.Output.WorldFile = o.worldFile
	}
	if o.database != "" {
		cfg.Output.Database = o.database
	}
	if o.image != "" {
		cfg.Output.Image = o.image
	}
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
}
