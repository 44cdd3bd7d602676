package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vent_controller/internal/actuator"
	"vent_controller/internal/handlers"
	"vent_controller/internal/logger"
	"vent_controller/internal/models"
	"vent_controller/internal/repository"
	"vent_controller/internal/repository/db"
	"vent_controller/internal/server"
	"vent_controller/internal/service"

	"github.com/spf13/viper"
)

const firmwareVersion = "1.2.0"

func main() {
	if err := loadConfig(); err != nil {
		logger.Get("info").Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	store, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Recover durable state before anything can move: the state machine
	// starts from the last checkpoint and replays any uncommitted target.
	repos := repository.NewRepository(store)
	machine := service.Recover(ctx, repos.Checkpoint, repos.Events, log)

	act, err := openActuator(log)
	if err != nil {
		log.Fatalw("failed to open actuator", "err", err)
	}
	defer func() {
		if cerr := act.Close(); cerr != nil {
			log.Errorw("failed to close actuator", "err", cerr)
		}
	}()

	// Drive the servo to the recovered position so hardware and state
	// machine agree before the mover takes over.
	if err := act.SetAngle(machine.CurrentAngle()); err != nil {
		log.Fatalw("failed to position actuator", "err", err, "angle", machine.CurrentAngle())
	}

	services := service.NewService(repos, machine, act, openRadio(), log, deviceOptions())
	apiHandler := handlers.NewHandler(services, log)

	step, idle := moverIntervals()
	go services.Mover.Run(ctx, step, idle)

	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("db.path", "vent.db")
	viper.SetDefault("actuator.driver", "log")
	viper.SetDefault("actuator.sysfs_root", "/sys/class/pwm")
	viper.SetDefault("actuator.step_interval_ms", 50)
	viper.SetDefault("actuator.idle_interval_ms", 250)
	viper.SetDefault("power.source", "usb")
	viper.SetDefault("power.poll_period_ms", 5000)
	viper.SetDefault("radio.rssi", -60)

	return viper.ReadInConfig()
}

func openDB(log *logger.Logger) (*sql.DB, error) {
	path := viper.GetString("db.path")
	log.Infow("opening state store", "path", path)
	return db.InitDB(path)
}

// openActuator picks the servo driver: "pwm" talks to a sysfs PWM
// channel, anything else logs angles for bench runs without hardware.
func openActuator(log *logger.Logger) (actuator.Actuator, error) {
	if viper.GetString("actuator.driver") != "pwm" {
		return actuator.NewLogServo(log), nil
	}
	return actuator.OpenPWMServo(
		viper.GetString("actuator.sysfs_root"),
		viper.GetInt("actuator.pwm_chip"),
		viper.GetInt("actuator.pwm_channel"),
	)
}

func openRadio() service.RadioStats {
	return service.StaticRadio{Level: int8(viper.GetInt("radio.rssi"))}
}

func deviceOptions() service.Options {
	opts := service.Options{
		FirmwareVersion: firmwareVersion,
		PowerSource:     models.PowerUSB,
		PollPeriodMS:    viper.GetUint32("power.poll_period_ms"),
	}
	if viper.GetString("power.source") == "battery" {
		opts.PowerSource = models.PowerBattery
		opts.BatteryMV = uint16(viper.GetUint32("power.battery_mv"))
	}
	return opts
}

func moverIntervals() (step, idle time.Duration) {
	step = time.Duration(viper.GetInt("actuator.step_interval_ms")) * time.Millisecond
	idle = time.Duration(viper.GetInt("actuator.idle_interval_ms")) * time.Millisecond
	return step, idle
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil && err != http.ErrServerClosed {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")

	// stop the mover loop first so no step lands mid-shutdown
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
