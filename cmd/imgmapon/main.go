package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/benmeehan/imgmapon/internal/constants"
	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/benmeehan/imgmapon/internal/services"
	"github.com/benmeehan/imgmapon/internal/utils"
	"github.com/benmeehan/imgmapon/pkg/file"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	request models.AnalysisRequest
)

var rootCmd = &cobra.Command{
	Use:   constants.ToolName,
	Short: "Image forensics with camera GPS and host IP correlation",
	Long: `imgmapon extracts metadata and content signals from an image, resolves the
camera GPS position and the hosting server's IP location, and reports how far
apart they are.`,
	SilenceUsage: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a local image or an image URL",
	Long:  `Acquire the image, extract EXIF, resolve both locations, run the requested analyzers and write the JSON report.`,
	RunE:  runAnalyze,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s %s/%s)\n",
			constants.ToolName, constants.ToolVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", constants.DefaultConfigFile, "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	f := analyzeCmd.Flags()
	f.StringVarP(&request.ImagePath, "image", "i", "", "Path to a local image")
	f.StringVarP(&request.ImageURL, "url", "u", "", "URL of a remote image or share page")
	f.BoolVar(&request.Metadata, "metadata", false, "Include image metadata in the report")
	f.BoolVar(&request.Colors, "colors", false, "Extract dominant colours")
	f.BoolVar(&request.Edges, "edges", false, "Compute edge density")
	f.BoolVar(&request.Text, "text", false, "Run OCR with tesseract")
	f.BoolVar(&request.Objects, "objects", false, "Run the configured object detector")
	f.BoolVar(&request.Map, "map", false, "Write an HTML map of both locations")
	f.BoolVar(&request.ReverseLookup, "reverse-lookup", true, "Run a reverse image search for --url sources")
	f.StringVar(&request.GPSTrackPath, "gps-track", "", "NMEA log used when the image has no GPS tags")
	f.StringVarP(&request.OutputPath, "output", "o", constants.DefaultReportFile, "Report file path")
	f.StringVar(&request.MapPath, "map-file", constants.DefaultMapFile, "Map file path")
	analyzeCmd.MarkFlagsMutuallyExclusive("image", "url")
	analyzeCmd.MarkFlagsOneRequired("image", "url")

	rootCmd.AddCommand(analyzeCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(configFile, fileClient)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(config.LogLevel)
	logger.Debug().Str("config", configFile).Str("version", constants.ToolVersion().String()).Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := services.OpenCache(config)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	service, err := services.NewAnalysisService(config, fileClient, store, logger)
	if err != nil {
		return err
	}

	sinks, closeSinks, err := services.BuildSinks(ctx, config, fileClient, logger)
	if err != nil {
		return err
	}
	defer closeSinks()
	service.Sinks = sinks

	report, err := service.Run(ctx, request)
	if err != nil {
		return err
	}

	services.PrintSummary(cmd.OutOrStdout(), report, request.OutputPath)
	return nil
}
