package controller

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fskhalsa/humidity-manager/config"
	"github.com/fskhalsa/humidity-manager/internal/history"
	"github.com/fskhalsa/humidity-manager/internal/sensorpush"
	"github.com/fskhalsa/humidity-manager/internal/telemetry"
	"github.com/fskhalsa/humidity-manager/internal/vesync"
	"github.com/fskhalsa/humidity-manager/pkg/controller/health"
	"github.com/fskhalsa/humidity-manager/pkg/controller/mister"
	"github.com/fskhalsa/humidity-manager/pkg/controller/status"
	"github.com/fskhalsa/humidity-manager/pkg/utils"
)

const (
	DEFAULT_LISTEN_PORT          = "8080"
	DEFAULT_CONFIG_FILE_LOCATION = "./config/config.json"
	DEFAULT_HISTORY_DB_LOCATION  = "./humidity-manager.db"
)

// Used by "flag" to read command line arguments
var (
	cmdLineFlagMockProviders bool
	cmdLineFlagLogLevel      string
)

type ControllerConfig struct {
	mux                *http.ServeMux
	ListenPort         string
	ConfigFileLocation string
	LogFileLocation    string
	HistoryDBLocation  string
	MQTTBrokerURL      string
	SensorPushUser     string
	SensorPushPassword string
	VeSyncUser         string
	VeSyncPassword     string
	UseMockProviders   bool
	Logger             *slog.Logger
	LoggerLevel        *slog.LevelVar
	LogFile            *os.File

	Settings  config.Config
	Sensors   mister.SensorProvider
	Outlets   mister.OutletProvider
	Store     *history.Store
	Publisher telemetry.Publisher
	Metrics   *Metrics
	Mister    *mister.Mister
}

// init will read and initialize the global command line variables
func init() {
	flag.BoolVar(&cmdLineFlagMockProviders, "use_mock_providers", false, "Indicate if we should use mock sensor and outlet providers for this controller instance.")
	flag.StringVar(&cmdLineFlagLogLevel, "log_level", config.DefaultLogLevel.String(), "The log level to start the controller at")
}

// InitializeController builds the control loop and status server and runs
// them until interrupted.
func InitializeController() error {
	slog.Debug(">>InitializeController")
	defer slog.Debug("<<InitializeController")

	cc, err := initializeControllerConfig()
	if err != nil {
		return err
	}

	if cc.LogFile != nil && cc.LogFile != os.Stderr {
		defer cc.LogFile.Close()
	}
	if cc.Store != nil {
		defer cc.Store.Close()
	}
	if cc.Publisher != nil {
		defer cc.Publisher.Close()
	}

	cc.mux = http.NewServeMux()

	healthHandler := health.NewHandler()
	healthHandler.RegisterRoutes(cc.mux)

	statusHandler := status.NewHandler(cc.Mister, cc.Store, cc.Settings.OriginPatterns)
	statusHandler.RegisterRoutes(cc.mux)

	cc.mux.Handle("GET /metrics", promhttp.Handler())

	cc.runController()

	return nil
}

// runController starts the status server and blocks in the management loop
// until the process is interrupted.
func (cc *ControllerConfig) runController() {
	slog.Info(">>runController")
	defer slog.Info("<<runController")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cc.ListenPort),
		Handler: cc.mux,
	}

	go func() {
		slog.Info("Starting status server", "port", cc.ListenPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Status server failed", "error", err)
		}
	}()

	cc.Mister.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down the status server", "error", err)
	}
}

func initializeControllerConfig() (ControllerConfig, error) {
	slog.Info(">>initializeControllerConfig")
	defer slog.Info("<<initializeControllerConfig")

	cc := ControllerConfig{}

	// MUST BE FIRST
	cc.readEnvironmentVariables()

	// configure slog
	cc.configureLogger()

	// load the configuration file settings
	settings, err := config.LoadConfigSettings(cc.ConfigFileLocation)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("no config file found, using built-in defaults", "location", cc.ConfigFileLocation)
		} else {
			slog.Error("failed to load config file", "error", err)
			os.Exit(1)
		}
	}

	cc.Settings = settings

	cc.configureProviders()
	cc.openHistoryStore()
	cc.configureTelemetry()

	cc.Metrics = NewMetrics(prometheus.DefaultRegisterer)

	var store mister.CycleStore
	if cc.Store != nil {
		store = cc.Store
	}

	cc.Mister = mister.NewMister(
		mister.Settings{
			SensorName:   settings.SensorName,
			OutletName:   settings.OutletName,
			PollInterval: time.Duration(settings.PollIntervalSeconds) * time.Second,
			Misting: mister.MistingParameters{
				TriggerOffset: settings.TriggerOffset,
				Runtime:       time.Duration(settings.MistingRuntimeSeconds * float64(time.Second)),
				Cooldown:      time.Duration(settings.MistingTimeoutSeconds * float64(time.Second)),
			},
		},
		cc.Sensors,
		cc.Outlets,
		store,
		cc.Publisher,
		cc.Metrics)

	return cc, nil
}

func (cc *ControllerConfig) readEnvironmentVariables() {
	slog.Info(">>readEnvironmentVariables")
	defer slog.Info("<<readEnvironmentVariables")

	// load the environment
	err := godotenv.Load()
	if err != nil {
		slog.Warn("could not load .env file", "error", err)
	}

	// mock provider flag is a command line flag for debugging
	cc.UseMockProviders = cmdLineFlagMockProviders

	cc.SensorPushUser = os.Getenv("HM_SENSORPUSH_USER")
	cc.SensorPushPassword = os.Getenv("HM_SENSORPUSH_PASSWORD")
	cc.VeSyncUser = os.Getenv("HM_VESYNC_USER")
	cc.VeSyncPassword = os.Getenv("HM_VESYNC_PASSWORD")

	if !cc.UseMockProviders {
		if len(cc.SensorPushUser) == 0 || len(cc.SensorPushPassword) == 0 {
			slog.Error("Must define env variables HM_SENSORPUSH_USER and HM_SENSORPUSH_PASSWORD")
			os.Exit(1)
		}

		if len(cc.VeSyncUser) == 0 || len(cc.VeSyncPassword) == 0 {
			slog.Error("Must define env variables HM_VESYNC_USER and HM_VESYNC_PASSWORD")
			os.Exit(1)
		}
	}

	cc.ListenPort = os.Getenv("PORT")
	if len(cc.ListenPort) == 0 {
		cc.ListenPort = DEFAULT_LISTEN_PORT
	}

	cc.LogFileLocation = os.Getenv("LOG_FILE_LOCATION")

	cc.ConfigFileLocation = os.Getenv("CONFIG_FILE_LOCATION")
	if len(cc.ConfigFileLocation) == 0 {
		cc.ConfigFileLocation = DEFAULT_CONFIG_FILE_LOCATION
	}

	cc.HistoryDBLocation = os.Getenv("HISTORY_DB_LOCATION")
	if len(cc.HistoryDBLocation) == 0 {
		cc.HistoryDBLocation = DEFAULT_HISTORY_DB_LOCATION
	}

	cc.MQTTBrokerURL = os.Getenv("MQTT_BROKER_URL")
}

// configureLogger will initialize slog to stderr and save the log level.
func (cc *ControllerConfig) configureLogger() {
	slog.Info(">>configureLogger")
	defer slog.Info("<<configureLogger")

	currentLevel := new(slog.LevelVar)

	// parse the log level from any passed in command line flag
	level, err := utils.ParseLogLevel(cmdLineFlagLogLevel)
	if err != nil {
		slog.Error("Failed to parse the log level, setting to DefaultLogLevel", "error", err, "log_level", cmdLineFlagLogLevel)
		level = config.DefaultLogLevel
	}

	currentLevel.Set(level)

	// by default we will write to stderr
	logFile := os.Stderr
	if len(cc.LogFileLocation) != 0 {
		slog.Info("Save to log file", "file", cc.LogFileLocation)
		logFile, err = os.OpenFile(cc.LogFileLocation, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			slog.Warn("Failed to open log file", "error", err)
			os.Exit(1)
		}
	}

	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: currentLevel})

	logger := slog.New(fileHandler)

	slog.SetDefault(logger)

	cc.Logger = logger
	cc.LoggerLevel = currentLevel
	cc.LogFile = logFile
}

// configureProviders builds the sensor and outlet providers, either the real
// vendor clients or the mock providers when running with -use_mock_providers.
func (cc *ControllerConfig) configureProviders() {
	if cc.UseMockProviders {
		slog.Warn("Using mock sensor and outlet providers")
		cc.Sensors = newMockSensorProvider()
		cc.Outlets = newMockOutletProvider()
		return
	}

	timeout := time.Duration(cc.Settings.ProviderTimeoutSeconds) * time.Second

	sensorClient := sensorpush.NewClient(sensorpush.DefaultBaseURL, cc.SensorPushUser, cc.SensorPushPassword, timeout)
	cc.Sensors = newSensorPushProvider(sensorClient)

	outletClient := vesync.NewClient(vesync.DefaultBaseURL, cc.VeSyncUser, cc.VeSyncPassword, timeout)
	cc.Outlets = newVeSyncProvider(outletClient)
}

// openHistoryStore opens the cycle history database. History is supplemental,
// a failure here leaves the controller running without it.
func (cc *ControllerConfig) openHistoryStore() {
	store, err := history.Open(cc.HistoryDBLocation)
	if err != nil {
		slog.Error("failed to open the cycle history database, continuing without history", "error", err, "location", cc.HistoryDBLocation)
		return
	}

	cc.Store = store
}

// configureTelemetry connects the MQTT publisher when a broker is configured.
func (cc *ControllerConfig) configureTelemetry() {
	if len(cc.MQTTBrokerURL) == 0 {
		return
	}

	publisher, err := telemetry.NewMQTTPublisher(cc.MQTTBrokerURL)
	if err != nil {
		slog.Warn("failed to connect to the MQTT broker, continuing without telemetry", "error", err, "broker", cc.MQTTBrokerURL)
		return
	}

	cc.Publisher = publisher
}
